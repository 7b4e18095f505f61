package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"citycare-be/controllers"
	"citycare-be/lifecycle"
	"citycare-be/mailer"
	"citycare-be/models"
	"citycare-be/repository/repotest"
	"citycare-be/routes"
	"citycare-be/storage"
	"citycare-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []mailer.Message
	fail bool
}

func (n *recordingNotifier) Deliver(_ context.Context, msg mailer.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return !n.fail
}

var otpPattern = regexp.MustCompile(`>(\d{6})<`)

// lastOTP extracts the code from the most recent OTP email sent to addr.
func (n *recordingNotifier) lastOTP(t *testing.T, addr string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.msgs) - 1; i >= 0; i-- {
		m := n.msgs[i]
		if m.To == addr && m.Kind == mailer.KindOTP {
			match := otpPattern.FindStringSubmatch(m.HTML)
			if match == nil {
				t.Fatalf("no code in otp email: %s", m.HTML)
			}
			return match[1]
		}
	}
	t.Fatalf("no otp email sent to %s", addr)
	return ""
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if m.Kind == kind {
			c++
		}
	}
	return c
}

type testEnv struct {
	router     *gin.Engine
	users      *repotest.Users
	issues     *repotest.Issues
	mail       *recordingNotifier
	tokens     *utils.TokenIssuer
	admin      models.User
	adminToken string
}

func newTestEnv(t *testing.T, policy lifecycle.StatusPolicy, seed ...models.Issue) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := utils.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	images, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	admin := models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Root",
		Email:      "root@citycare.dev",
		IsAdmin:    true,
		Role:       models.RoleAuthority,
		IsVerified: true,
	}
	adminToken, err := tokens.Generate(admin.ID.Hex())
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}

	users := repotest.NewUsers(admin)
	issues := repotest.NewIssues(seed...)
	comments := repotest.NewComments()
	mail := &recordingNotifier{}
	logger := zap.NewNop()

	router := routes.NewRouter(routes.Options{
		Logger: logger,
		Tokens: tokens,
		Users:  users,
	}, routes.Handlers{
		Auth:     controllers.NewAuthController(users, tokens, mail, 10*time.Minute, logger),
		Issues:   controllers.NewIssueController(issues, users, images, mail, policy, logger),
		Comments: controllers.NewCommentController(comments, issues, users, logger),
		Admin:    controllers.NewAdminController(issues, users, logger),
	})

	return &testEnv{
		router:     router,
		users:      users,
		issues:     issues,
		mail:       mail,
		tokens:     tokens,
		admin:      admin,
		adminToken: adminToken,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) multipart(t *testing.T, path, token string, fields map[string]string, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("not really an image"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerVerified signs a user up, verifies the emailed code and returns id and token.
func (e *testEnv) registerVerified(t *testing.T, name, email string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": name, "email": email, "password": "pa55word"})
	expectStatus(t, w, http.StatusCreated)
	userID := decode[map[string]any](t, w)["userId"].(string)

	w = e.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": userID, "otp": e.mail.lastOTP(t, email)})
	expectStatus(t, w, http.StatusOK)
	return userID, decode[map[string]any](t, w)["token"].(string)
}

var reportFields = map[string]string{
	"title":       "Pothole on 5th",
	"description": "Deep pothole near the bus stop",
	"category":    "Road",
	"city":        "Springfield",
	"state":       "IL",
	"latitude":    "39.7817",
	"longitude":   "-89.6501",
}

func (e *testEnv) reportIssue(t *testing.T, token string) issueJSON {
	t.Helper()
	w := e.multipart(t, "/api/issues", token, reportFields, "pothole.jpg")
	expectStatus(t, w, http.StatusCreated)
	return decode[issueJSON](t, w)
}

type userJSON struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type issueJSON struct {
	ID               string   `json:"_id"`
	User             any      `json:"user"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	ImageURL         string   `json:"imageUrl"`
	Location         struct{ Latitude, Longitude float64 }
	Rating           *int     `json:"rating"`
	Feedback         string   `json:"feedback"`
	VolunteerRequest string   `json:"volunteerRequest"`
	Volunteer        string   `json:"volunteer"`
	AuthorityUpdates []struct {
		Text      string   `json:"text"`
		ImageURL  string   `json:"imageUrl"`
		UpdatedBy userJSON `json:"updatedBy"`
	} `json:"authorityUpdates"`
}

// populatedUser reads the user field of a populated issue.
func (i issueJSON) populatedUser(t *testing.T) userJSON {
	t.Helper()
	m, ok := i.User.(map[string]any)
	if !ok {
		t.Fatalf("expected populated user, got %#v", i.User)
	}
	u := userJSON{}
	u.ID, _ = m["_id"].(string)
	u.Name, _ = m["name"].(string)
	u.Email, _ = m["email"].(string)
	return u
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	expectStatus(t, w, status)
	if got := decode[map[string]any](t, w)["message"]; got != message {
		t.Fatalf("expected message %q, got %v", message, got)
	}
}
