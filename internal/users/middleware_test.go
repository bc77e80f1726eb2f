package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRecordActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryUserRepository()
	svc := NewService(repo)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetActor(c, models.Actor{ID: "A1", Role: models.RoleApprover, Name: "Ava"})
	}, RecordActor(svc))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, w.Code)

	got, err := repo.GetMany(context.Background(), []string{"A1"})
	require.NoError(t, err)
	require.Equal(t, "Ava", got["A1"].Name)
}

func TestRecordActorFailureDoesNotBlockRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(&fakeRepo{upsertErr: errors.New("down")})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetActor(c, models.Actor{ID: "U1", Role: models.RoleUser})
	}, RecordActor(svc))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
