package controllers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"citycare-be/lifecycle"
	"citycare-be/mailer"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSignupVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Alice", "email": "Alice@Example.com", "password": "pa55word",
	})
	expectStatus(t, w, http.StatusCreated)
	body := decode[map[string]any](t, w)
	if body["message"] != "OTP sent to your email" || body["otpSent"] != true {
		t.Fatalf("unexpected signup body %v", body)
	}
	userID := body["userId"].(string)
	firstCode := env.mail.lastOTP(t, "alice@example.com")

	// Unverified login re-issues a code instead of a token.
	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "pa55word"})
	expectStatus(t, w, http.StatusOK)
	body = decode[map[string]any](t, w)
	if body["message"] != "Account not verified. New OTP sent to email" || body["userId"] != userID {
		t.Fatalf("unexpected login body %v", body)
	}
	if _, ok := body["token"]; ok {
		t.Fatal("unverified login must not return a token")
	}
	if env.mail.count(mailer.KindOTP) != 2 {
		t.Fatalf("expected a second otp email, got %d", env.mail.count(mailer.KindOTP))
	}
	secondCode := env.mail.lastOTP(t, "alice@example.com")

	if firstCode != secondCode {
		w = env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": userID, "otp": firstCode})
		expectError(t, w, http.StatusBadRequest, "Invalid or expired OTP")
	}

	w = env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": userID, "otp": secondCode})
	expectStatus(t, w, http.StatusOK)
	body = decode[map[string]any](t, w)
	if body["message"] != "Account verified successfully" || body["token"] == "" {
		t.Fatalf("unexpected verify body %v", body)
	}
	profile := body["user"].(map[string]any)
	if profile["_id"] != userID || profile["email"] != "alice@example.com" || profile["isAdmin"] != false {
		t.Fatalf("unexpected profile %v", profile)
	}

	oid, _ := primitive.ObjectIDFromHex(userID)
	stored, _ := env.users.Get(oid)
	if !stored.IsVerified || stored.OTP != "" || stored.OTPExpires != nil {
		t.Fatalf("expected verified user with cleared otp, got %+v", stored)
	}

	// The code is single use.
	w = env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": userID, "otp": secondCode})
	expectError(t, w, http.StatusBadRequest, "Invalid or expired OTP")

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "pa55word"})
	expectStatus(t, w, http.StatusOK)
	body = decode[map[string]any](t, w)
	token, _ := body["token"].(string)
	if body["message"] != "Login successful" || token == "" {
		t.Fatalf("unexpected login body %v", body)
	}

	w = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	if me := decode[map[string]any](t, w); me["name"] != "Alice" || me["password"] != nil {
		t.Fatalf("unexpected profile %v", me)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Alice", "email": "alice@example.com"})
	expectError(t, w, http.StatusBadRequest, "All fields are required")

	w = env.do(t, http.MethodPost, "/api/auth/signup", "", nil)
	expectError(t, w, http.StatusBadRequest, "All fields are required")

	env.registerVerified(t, "Alice", "alice@example.com")

	w = env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Other", "email": " ALICE@example.com", "password": "x"})
	expectError(t, w, http.StatusBadRequest, "Email already exists")
}

func TestSignupSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())
	env.mail.fail = true

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Bob", "email": "bob@example.com", "password": "pw"})
	expectStatus(t, w, http.StatusCreated)
	if body := decode[map[string]any](t, w); body["otpSent"] != false {
		t.Fatalf("expected otpSent=false, got %v", body)
	}
}

func TestVerifyOTPRejectsExpiredCode(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Alice", "email": "alice@example.com", "password": "pw"})
	expectStatus(t, w, http.StatusCreated)
	userID := decode[map[string]any](t, w)["userId"].(string)
	code := env.mail.lastOTP(t, "alice@example.com")

	oid, _ := primitive.ObjectIDFromHex(userID)
	user, _ := env.users.Get(oid)
	past := time.Now().Add(-time.Minute)
	user.OTPExpires = &past
	if err := env.users.Save(context.Background(), &user); err != nil {
		t.Fatalf("save: %v", err)
	}

	w = env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": userID, "otp": code})
	expectError(t, w, http.StatusBadRequest, "Invalid or expired OTP")

	stored, _ := env.users.Get(oid)
	if stored.IsVerified {
		t.Fatal("expired code must not verify the account")
	}
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())

	w := env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": primitive.NewObjectID().Hex(), "otp": "123456"})
	expectError(t, w, http.StatusBadRequest, "Invalid or expired OTP")

	w = env.do(t, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"userId": "nope", "otp": "123456"})
	expectError(t, w, http.StatusBadRequest, "Invalid or expired OTP")
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())
	env.registerVerified(t, "Alice", "alice@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	expectError(t, w, http.StatusUnauthorized, "Invalid credentials")

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "pa55word"})
	expectError(t, w, http.StatusUnauthorized, "Invalid credentials")

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t, lifecycle.AllowAllStatuses())

	w := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}
