package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"classhub/config"
	"classhub/internal/pkg/cache"
	"classhub/internal/pkg/database"
	"classhub/internal/pkg/logger"
	"classhub/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"classhub/internal/api/nota"
	"classhub/internal/api/router"
	"classhub/internal/api/turma"
	"classhub/internal/api/usuario"
	"classhub/internal/repository/notarepo"
	"classhub/internal/repository/turmarepo"
	"classhub/internal/repository/usuariorepo"
	"classhub/internal/service/notaservice"
	"classhub/internal/service/turmaservice"
	"classhub/internal/service/usuarioservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço ClassHub...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos:
		// as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	jwtExpiry := time.Hour * time.Duration(cfg.JWTExpiryHours)
	tokenSvc := token.NewService(cfg.JWTSecretKey, jwtExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	usuarioRepo := usuariorepo.NewUsuarioRepository(db, cfg.DBTimeout, log)
	usuarioSvc := usuarioservice.NewService(usuarioRepo, tokenSvc, log)
	usuarioHandler := usuario.NewHandler(usuarioSvc, log)
	log.Debug("Camadas de Usuário inicializadas.", nil)

	turmaRepo := turmarepo.NewTurmaRepository(db, cacheClient, cfg.CacheTTL, cfg.DBTimeout, log)
	turmaSvc := turmaservice.NewService(turmaRepo, log)
	turmaHandler := turma.NewHandler(turmaSvc, log)
	log.Debug("Camadas de Turma inicializadas.", nil)

	notaRepo := notarepo.NewNotaRepository(db, cfg.DBTimeout, log)
	notaSvc := notaservice.NewService(notaRepo, log)
	notaHandler := nota.NewHandler(notaSvc, log)
	log.Debug("Camadas de Nota inicializadas.", nil)

	// 4. Configuração e Início do Roteador/Servidor

	r := router.NewRouter(usuarioHandler, turmaHandler, notaHandler, tokenSvc, cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor ClassHub ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
