package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, h http.HandlerFunc) *ProductRepository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewProductRepository(NewClient(srv.URL+"/", srv.Client(), logging.Nop()))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestProductRepository_List(t *testing.T) {
	var auth string
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/getAllProducts", r.URL.Path)
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `{"success":true,"data":[
			{"_id":"p1","name":"Statuario","category":"Italian","price":250,"quantity":120.5},
			{"_id":"p2","name":"Nero Marquina","category":"Spanish"}
		]}`)
	})
	sess, err := entity.NewSession("tok-1", "admin")
	require.NoError(t, err)

	products, err := repo.List(context.Background(), sess)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, 250.0, products[0].Price)
	assert.Equal(t, "Nero Marquina", products[1].Name)
	assert.Equal(t, "Bearer tok-1", auth)
}

func TestProductRepository_ListAcceptsTextNumbers(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[
			{"_id":"p1","price":250},
			{"_id":"p2","price":"250","quantity":"500.00","pieces":"4"}
		]}`)
	})

	products, err := repo.List(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 250.0, products[1].Price)
	assert.Equal(t, 500.0, products[1].Quantity)
	assert.Equal(t, 4.0, products[1].Pieces)
}

func TestProductRepository_ListWithoutSessionSendsNoAuth(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":null}`)
	})

	products, err := repo.List(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
}

func TestProductRepository_GetByID(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/getPostDataById", r.URL.Path)
		assert.Equal(t, "p 1", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"_id":"p 1","name":"Onyx"}}`)
	})

	p, err := repo.GetByID(context.Background(), nil, " p 1 ")

	require.NoError(t, err)
	assert.Equal(t, "Onyx", p.Name)
}

func TestProductRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		message string
	}{
		{"missing success flag", http.StatusOK, `{"data":{"_id":"x"}}`, repository.ErrMalformedResponse, ""},
		{"not json", http.StatusOK, `<html>oops</html>`, repository.ErrMalformedResponse, ""},
		{"success false", http.StatusOK, `{"success":false,"message":"Product locked"}`, repository.ErrRequestRejected, "Product locked"},
		{"not found", http.StatusNotFound, `{"success":false,"message":"No such product"}`, repository.ErrProductNotFound, "No such product"},
		{"unauthorized", http.StatusUnauthorized, `{"success":false}`, repository.ErrUnauthorized, ""},
		{"server error", http.StatusBadGateway, `bad gateway`, repository.ErrBackendUnavailable, ""},
		{"bad request", http.StatusBadRequest, `{"success":false,"message":"name required"}`, repository.ErrRequestRejected, "name required"},
		{"empty data", http.StatusOK, `{"success":true,"data":{}}`, repository.ErrProductNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := repo.GetByID(context.Background(), nil, "x")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var backendErr *Error
			if tt.message != "" {
				require.True(t, errors.As(err, &backendErr))
				assert.Equal(t, tt.message, backendErr.UserMessage())
			}
		})
	}
}

func TestProductRepository_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	repo := NewProductRepository(NewClient(srv.URL, nil, logging.Nop()))

	_, err := repo.List(context.Background(), nil)

	assert.ErrorIs(t, err, repository.ErrBackendUnavailable)
	assert.True(t, repository.IsTransportError(err))
}

func TestProductRepository_EmptyIDIsRejectedLocally(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := repo.GetByID(context.Background(), nil, "  ")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.Update(context.Background(), nil, "", map[string]string{"name": "x"}, nil)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.UpdatePrice(context.Background(), nil, "p1", 0)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestProductRepository_CreateSendsMultipart(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/create-post", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Statuario", r.FormValue("name"))
		assert.Equal(t, "500.00", r.FormValue("quantity"))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)
		assert.Equal(t, `slab "a".jpg`, files[0].Filename)
		assert.Equal(t, "image/jpeg", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))

		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"_id":"new-1","name":"Statuario"}}`)
	})

	p, err := repo.Create(context.Background(), nil,
		map[string]string{"name": "Statuario", "quantity": "500.00"},
		[]repository.ImageUpload{
			{FileName: `slab "a".jpg`, ContentType: "image/jpeg", Content: strings.NewReader("jpeg-bytes")},
			{FileName: "b.bin", Content: strings.NewReader("raw")},
		})

	require.NoError(t, err)
	assert.Equal(t, "new-1", p.ID)
}

func TestProductRepository_UpdateWithoutImagesSendsJSON(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/updateProduct/p1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"finish": "honed"}, body)

		writeJSON(w, http.StatusOK, `{"success":true,"data":{"_id":"p1","finish":"honed"}}`)
	})

	p, err := repo.Update(context.Background(), nil, "p1", map[string]string{"finish": "honed"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "honed", p.Finish)
}

func TestProductRepository_UpdateWithImagesSendsMultipart(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "honed", r.FormValue("finish"))
		assert.Len(t, r.MultipartForm.File["images"], 1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	p, err := repo.Update(context.Background(), nil, "p1", map[string]string{"finish": "honed"},
		[]repository.ImageUpload{{FileName: "a.png", ContentType: "image/png", Content: strings.NewReader("png")}})

	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID, "id is kept when the backend returns no data")
}

func TestProductRepository_UpdatePrice(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 310.5, body["price"])
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"_id":"p1","price":310.5}}`)
	})

	p, err := repo.UpdatePrice(context.Background(), nil, "p1", 310.5)

	require.NoError(t, err)
	assert.Equal(t, 310.5, p.Price)
}
