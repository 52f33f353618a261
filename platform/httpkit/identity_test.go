package httpkit

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func testContext() *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c
}

func TestGetIdentity_AuthenticatedUser(t *testing.T) {
	c := testContext()
	userID := uuid.New()
	c.Set(ContextUserIDKey, userID)

	id, ok := GetIdentity(c)
	if !ok {
		t.Fatal("expected identity for authenticated context")
	}
	if !id.IsAuthenticated() {
		t.Fatal("identity must report authenticated")
	}
	if id.UserID() != userID {
		t.Fatalf("user id = %s, want %s", id.UserID(), userID)
	}
}

func TestGetIdentity_MissingUser(t *testing.T) {
	id, ok := GetIdentity(testContext())
	if ok {
		t.Fatal("expected no identity without a user in context")
	}
	if id.IsAuthenticated() {
		t.Fatal("identity must report unauthenticated")
	}
}

func TestGetIdentity_WrongValueType(t *testing.T) {
	c := testContext()
	c.Set(ContextUserIDKey, "not-a-uuid")

	if _, ok := GetIdentity(c); ok {
		t.Fatal("expected no identity for a malformed context value")
	}
}
