package main

import (
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/quietdesk/backend/config"
	"github.com/quietdesk/backend/internal/eventbus"
	"github.com/quietdesk/backend/internal/handler"
	"github.com/quietdesk/backend/internal/pkg/database"
	"github.com/quietdesk/backend/internal/pkg/llm"
	"github.com/quietdesk/backend/internal/repository"
	"github.com/quietdesk/backend/internal/router"
	"github.com/quietdesk/backend/internal/service"
	"github.com/quietdesk/backend/internal/service/orchestrator"
	"github.com/quietdesk/backend/internal/service/promptbuilder"
	"github.com/quietdesk/backend/internal/subscriber"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("Starting QuietDesk server...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := service.InitSystemTemplates(db); err != nil {
		log.Fatalf("Failed to seed role templates: %v", err)
	}

	personaRepo := repository.NewPersonaRepository(db)
	templateRepo := repository.NewRoleTemplateRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	suggestionRepo := repository.NewMemorySuggestionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	fileRepo := repository.NewFileRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	trailRepo := repository.NewRequestMessageRepository(db)
	deliverableRepo := repository.NewDeliverableRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)

	builder := promptbuilder.NewBuilder(templateRepo, memoryRepo, fileRepo, integrationRepo)
	llmClient := llm.NewClient(cfg, apiKeyRepo)

	requestEvents := eventbus.NewRequestEventBus()
	subscriber.NewRequestEventSubscriber().Register(requestEvents)

	personaService := service.NewPersonaService(personaRepo, templateRepo, messageRepo, fileRepo, builder)
	templateService := service.NewRoleTemplateService(templateRepo, personaRepo)
	projectService := service.NewProjectService(projectRepo, personaRepo, messageRepo, fileRepo)
	memoryService := service.NewMemoryService(memoryRepo, personaRepo, projectRepo)
	suggestionService := service.NewSuggestionService(suggestionRepo, memoryRepo, personaRepo)
	messageService := service.NewMessageService(messageRepo, personaRepo, projectRepo)
	fileService := service.NewFileService(fileRepo, personaRepo, projectRepo)
	chatService := service.NewChatService(personaRepo, projectRepo, messageRepo, builder, llmClient)
	requestService := service.NewRequestService(requestRepo, trailRepo, deliverableRepo, personaRepo, projectRepo, llmClient, requestEvents)
	deliverableService := service.NewDeliverableService(deliverableRepo, requestRepo)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo)
	integrationService := service.NewIntegrationService(integrationRepo)

	// maxWorkers stays small so concurrent workflows don't exhaust LLM quota.
	requestExecutor := &requestExecutorAdapter{requestService: requestService}
	if err := orchestrator.InitGlobalOrchestrator(cfg.Workflow.MaxWorkers, requestExecutor); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}
	requestService.SetOrchestrator(orchestrator.GetGlobalOrchestrator())
	defer orchestrator.ShutdownGlobalOrchestrator()

	cleanupStuckRequests(cfg, requestRepo)

	r := router.Setup(cfg,
		handler.OwnerScope(personaService),
		handler.NewPersonaHandler(personaService),
		handler.NewTemplateHandler(templateService),
		handler.NewProjectHandler(projectService),
		handler.NewMemoryHandler(memoryService),
		handler.NewSuggestionHandler(suggestionService),
		handler.NewMessageHandler(messageService),
		handler.NewFileHandler(fileService),
		handler.NewChatHandler(chatService),
		handler.NewRequestHandler(requestService),
		handler.NewDeliverableHandler(deliverableService),
		handler.NewIntegrationHandler(integrationService),
		handler.NewAPIKeyHandler(apiKeyService),
	)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// cleanupStuckRequests force-fails requests whose worker died before the
// last shutdown. Nothing resumes mid-flight workflows.
func cleanupStuckRequests(cfg *config.Config, requestRepo repository.RequestRepository) {
	affected, err := requestRepo.CleanupStuckRequests(cfg.Workflow.StuckTimeout)
	if err != nil {
		klog.V(6).Infof("Stuck request cleanup failed: %v", err)
		return
	}

	if affected > 0 {
		klog.V(6).Infof("Force-failed %d stuck requests on startup", affected)
	}
}
