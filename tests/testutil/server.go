package testutil

import (
	"log"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/per-object-storage/pkg/perobject"
	"github.com/tendant/per-object-storage/pkg/perobject/api"
	memoryarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/memory"
)

// SetupTestServer creates a test server with all routes mounted under
// /api/v1, backed by an in-memory archive. The returned service is the one
// the server writes to.
func SetupTestServer(opts ...api.HandlerOption) (*httptest.Server, perobject.Service) {
	svc, err := perobject.New(
		perobject.WithArchive(memoryarchive.New()),
	)
	if err != nil {
		log.Fatal(err)
	}

	handler := api.NewHandler(svc, nil, opts...)

	r := chi.NewRouter()
	r.Mount("/api/v1", handler.Routes())

	return httptest.NewServer(r), svc
}
