package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"classhub/internal/api/nota"
	"classhub/internal/api/turma"
	"classhub/internal/api/usuario"
	"classhub/internal/domain"
	"classhub/internal/pkg/cache"
	"classhub/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// Toda a autorização por papel acontece aqui, na borda; os serviços não
// conhecem controle de acesso.
func NewRouter(
	usuarioHandler *usuario.Handler,
	turmaHandler *turma.Handler,
	notaHandler *nota.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	rateLimit int,
	ratePeriod time.Duration,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// Middlewares de autenticação e autorização
	auth := middleware.NewAuthMiddleware(tokenSvc)
	admin := middleware.PermissionMiddleware(domain.TipoAdmin)
	adminOuProfessor := middleware.PermissionMiddleware(domain.TipoAdmin, domain.TipoProfessor)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas de Usuário ---
	// Login é a única rota pública.
	mux.HandleFunc("/api/usuario/login", usuarioHandler.LoginHandler)
	mux.HandleFunc("/api/usuario/create", auth(admin(usuarioHandler.CreateHandler)))
	mux.HandleFunc("/api/usuario/listar", auth(usuarioHandler.ListarHandler))
	mux.HandleFunc("/api/usuario/listarProfessores", auth(usuarioHandler.ListarProfessoresHandler))
	mux.HandleFunc("/api/usuario/obterusuario", auth(admin(usuarioHandler.ObterUsuarioHandler)))
	mux.HandleFunc("/api/usuario/editar", auth(admin(usuarioHandler.EditarHandler)))
	mux.HandleFunc("/api/usuario/deletar", auth(admin(usuarioHandler.DeletarHandler)))

	// --- 3. Rotas de Turma ---
	mux.HandleFunc("/api/turma/listar", auth(turmaHandler.ListarHandler))
	mux.HandleFunc("/api/turma/obter", auth(turmaHandler.ObterHandler))
	mux.HandleFunc("/api/turma/criar", auth(admin(turmaHandler.CriarHandler)))
	mux.HandleFunc("/api/turma/editar", auth(admin(turmaHandler.EditarHandler)))
	mux.HandleFunc("/api/turma/deletar", auth(admin(turmaHandler.DeletarHandler)))
	mux.HandleFunc("/api/turma/vincularAluno", auth(admin(turmaHandler.VincularAlunoHandler)))

	// --- 4. Rotas de Nota ---
	mux.HandleFunc("/api/nota/listarNotasAluno", auth(adminOuProfessor(notaHandler.ListarNotasAlunoHandler)))
	mux.HandleFunc("/api/nota/lancar", auth(adminOuProfessor(notaHandler.LancarHandler)))
	mux.HandleFunc("/api/nota/editar", auth(adminOuProfessor(notaHandler.EditarHandler)))
	mux.HandleFunc("/api/nota/deletar", auth(adminOuProfessor(notaHandler.DeletarHandler)))

	// --- 5. Middlewares Globais ---
	limited := middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(mux)
	return middleware.RequestID(limited)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
