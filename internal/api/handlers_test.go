package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/internal/domain"
	"lendflow/internal/repository"
	"lendflow/internal/service"
	"lendflow/internal/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db := testutil.OpenTestDB(t)
	log := testutil.NopLogger()

	userRepo := repository.NewUserRepository(db, log)
	bookRepo := repository.NewBookRepository(db, log)
	borrowingRepo := repository.NewBorrowingRepository(db, log)
	auditRepo := repository.NewAuditLogRepository(db, log)
	eventRepo := repository.NewEventStoreRepository(db, log)

	eventSvc := service.NewEventStoreService(eventRepo, log)
	auditSvc := service.NewAuditLogService(auditRepo, log)
	t.Cleanup(auditSvc.Shutdown)

	userSvc := service.NewUserService(userRepo, borrowingRepo, auditSvc, eventSvc, log)
	bookSvc := service.NewBookService(bookRepo, auditSvc, eventSvc, log)
	lendingSvc := service.NewLendingService(db, userRepo, bookRepo, borrowingRepo, auditSvc, eventSvc, log)

	mux := http.NewServeMux()
	NewUserHandler(userSvc, log).RegisterRoutes(mux)
	NewBookHandler(bookSvc, log).RegisterRoutes(mux)
	NewLendingHandler(lendingSvc, log).RegisterRoutes(mux)
	NewAuditLogHandler(auditSvc, log).RegisterRoutes(mux)
	NewEventHandler(eventSvc, log).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func getJSON(t *testing.T, url string, dest interface{}) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}

	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Message
}

func createUserHTTP(t *testing.T, server *httptest.Server, name string) domain.User {
	t.Helper()

	resp := postJSON(t, server.URL+"/users", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	return user
}

func createBookHTTP(t *testing.T, server *httptest.Server, name string) domain.Book {
	t.Helper()

	resp := postJSON(t, server.URL+"/books", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var book domain.Book
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
	return book
}

func TestCreateAndListUsers(t *testing.T) {
	server := newTestServer(t)

	createUserHTTP(t, server, "Eray Aslan")
	createUserHTTP(t, server, "Kadir Mutlu")

	var users []domain.UserListItem
	resp := getJSON(t, server.URL+"/users", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, users, 2)
	assert.Equal(t, "Eray Aslan", users[0].Name)
}

func TestCreateUserInvalidName(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/users", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrInvalidName.Error(), decodeError(t, resp))
}

func TestCreateUserMalformedBody(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/users", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserNotFound(t *testing.T) {
	server := newTestServer(t)

	resp := getJSON(t, server.URL+"/users/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetUserInvalidID(t *testing.T) {
	server := newTestServer(t)

	resp := getJSON(t, server.URL+"/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBookUnratedScore(t *testing.T) {
	server := newTestServer(t)

	book := createBookHTTP(t, server, "Dune")

	var detail domain.BookDetail
	resp := getJSON(t, fmt.Sprintf("%s/books/%d", server.URL, book.ID), &detail)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, domain.UnratedScore, detail.Score)
}

func TestBorrowAndReturnFlow(t *testing.T) {
	server := newTestServer(t)

	user := createUserHTTP(t, server, "Eray Aslan")
	book := createBookHTTP(t, server, "Dune")

	borrowURL := fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, user.ID, book.ID)
	resp := postJSON(t, borrowURL, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)

	// a second borrow of the same book is rejected
	other := createUserHTTP(t, server, "Kadir Mutlu")
	resp = postJSON(t, fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, other.ID, book.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrBookUnavailable.Error(), decodeError(t, resp))

	returnURL := fmt.Sprintf("%s/users/%d/return/%d", server.URL, user.ID, book.ID)
	resp = postJSON(t, returnURL, map[string]int64{"score": 9})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)

	var detail domain.BookDetail
	getJSON(t, fmt.Sprintf("%s/books/%d", server.URL, book.ID), &detail)
	assert.InDelta(t, 9.0, detail.Score, 0.001)
}

func TestConcurrentBorrowSingleNoContent(t *testing.T) {
	server := newTestServer(t)

	book := createBookHTTP(t, server, "Dune")
	users := []domain.User{
		createUserHTTP(t, server, "Eray Aslan"),
		createUserHTTP(t, server, "Kadir Mutlu"),
		createUserHTTP(t, server, "Enes Faruk Meniz"),
		createUserHTTP(t, server, "Sefa Eren Şahin"),
	}

	statuses := make(chan int, len(users))
	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			url := fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, userID, book.ID)
			resp, err := http.Post(url, "application/json", nil)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(user.ID)
	}
	wg.Wait()
	close(statuses)

	noContent, rejected := 0, 0
	for status := range statuses {
		switch status {
		case http.StatusNoContent:
			noContent++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Fatalf("beklenmeyen durum kodu: %d", status)
		}
	}

	assert.Equal(t, 1, noContent)
	assert.Equal(t, len(users)-1, rejected)
}

func TestReturnInvalidScore(t *testing.T) {
	server := newTestServer(t)

	user := createUserHTTP(t, server, "Eray Aslan")
	book := createBookHTTP(t, server, "Dune")

	postJSON(t, fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, user.ID, book.ID), nil)

	resp := postJSON(t, fmt.Sprintf("%s/users/%d/return/%d", server.URL, user.ID, book.ID), map[string]int64{"score": 11})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrInvalidScore.Error(), decodeError(t, resp))
}

func TestBorrowNotFoundResponses(t *testing.T) {
	server := newTestServer(t)

	user := createUserHTTP(t, server, "Eray Aslan")

	resp := postJSON(t, fmt.Sprintf("%s/users/999/borrow/1", server.URL), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, fmt.Sprintf("%s/users/%d/borrow/999", server.URL, user.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserDetailHistoryOverHTTP(t *testing.T) {
	server := newTestServer(t)

	user := createUserHTTP(t, server, "Eray Aslan")
	book := createBookHTTP(t, server, "Dune")

	postJSON(t, fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, user.ID, book.ID), nil)
	postJSON(t, fmt.Sprintf("%s/users/%d/return/%d", server.URL, user.ID, book.ID), map[string]int64{"score": 7})

	var detail domain.UserDetail
	resp := getJSON(t, fmt.Sprintf("%s/users/%d", server.URL, user.ID), &detail)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, detail.Books.Past, 1)
	assert.Equal(t, "Dune", detail.Books.Past[0].Name)
	require.NotNil(t, detail.Books.Past[0].UserScore)
	assert.EqualValues(t, 7, *detail.Books.Past[0].UserScore)
	assert.Empty(t, detail.Books.Present)
}

func TestEventEndpoints(t *testing.T) {
	server := newTestServer(t)

	user := createUserHTTP(t, server, "Eray Aslan")
	book := createBookHTTP(t, server, "Dune")

	postJSON(t, fmt.Sprintf("%s/users/%d/borrow/%d", server.URL, user.ID, book.ID), nil)
	postJSON(t, fmt.Sprintf("%s/users/%d/return/%d", server.URL, user.ID, book.ID), map[string]int64{"score": 8})

	var events []domain.Event
	resp := getJSON(t, fmt.Sprintf("%s/events/book/%d", server.URL, book.ID), &events)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTypeBookCreated, events[0].EventType)
	assert.Equal(t, domain.EventTypeBookBorrowed, events[1].EventType)
	assert.Equal(t, domain.EventTypeBookReturned, events[2].EventType)
	assert.Equal(t, 1, events[0].Version)
	assert.Equal(t, 3, events[2].Version)

	var created []domain.Event
	resp = getJSON(t, server.URL+"/events/types/user_created", &created)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, created, 1)

	resp = getJSON(t, server.URL+"/events/banana/1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, server.URL+"/events/types/banana", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditLogEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp := getJSON(t, server.URL+"/audit-logs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getJSON(t, server.URL+"/audit-logs/stats", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getJSON(t, server.URL+"/audit-logs/banana/1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
