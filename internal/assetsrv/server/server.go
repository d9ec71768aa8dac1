package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/apis"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/assetsrv/auth"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/common/httpx"
	"github.com/tansive/assetvault/internal/common/logtrace"
	commonmiddleware "github.com/tansive/assetvault/internal/common/middleware"
	"github.com/tansive/assetvault/pkg/api"
)

const ServerVersion = "AssetVault Server: 0.1.0"

type AssetServer struct {
	Router  *chi.Mux
	manager *assetmanager.Manager
	cfg     *config.ConfigParam
}

func CreateNewServer(m *assetmanager.Manager, cfg *config.ConfigParam) (*AssetServer, error) {
	if m == nil {
		return nil, fmt.Errorf("asset manager is required")
	}
	if cfg == nil {
		cfg = config.Config()
	}
	s := &AssetServer{
		manager: m,
		cfg:     cfg,
	}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *AssetServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.Metrics)
	if s.cfg.HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", s.cfg.Auth.Header},
			ExposedHeaders:   []string{"Location", "Content-Disposition", commonmiddleware.RequestIdHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	s.Router.Get("/version", s.getVersion)
	s.Router.Get("/health", s.getHealth)
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.Group(s.mountResourceHandlers)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in asset router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			fmt.Printf("Logging err: %s\n", err.Error())
		}
	}
}

func (s *AssetServer) mountResourceHandlers(r chi.Router) {
	r.Use(auth.IdentityMiddleware(s.cfg.Auth))
	apis.Router(r, s.manager, s.cfg.BlobStore.MaxUploadBytes)
}

func (s *AssetServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.GetVersionRsp{
		ServerVersion: ServerVersion,
		ApiVersion:    api.ApiVersion_1_0,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *AssetServer) getHealth(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
