package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/application/services"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/infrastructure/adapters"
	"github.com/Lerfilm/opendrama-sub004/infrastructure/gin_interface/controllers"
	"github.com/Lerfilm/opendrama-sub004/middleware"
	mockbackend "github.com/Lerfilm/opendrama-sub004/mock"
)

func main() {
	chainConfig, err := config.GetChainConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get chain config")
	}

	jwksUrl := os.Getenv("JWKS_URL")
	if jwksUrl == "" {
		log.Fatal().Msg("JWKS_URL is not set!")
	}

	zeroLogger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(120, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	contentFetcher := adapters.NewContentFetcher(zeroLogger)

	var ledgerStore outbound.LedgerStorePort
	var segmentStore outbound.SegmentStorePort
	var providers outbound.GenerationProviderPort
	var imageGenerator outbound.ImageGeneratorPort
	var frameExtractor outbound.FrameExtractorPort
	var anchorStore outbound.AnchorStorePort
	var characterResolver outbound.CharacterResolverPort

	if os.Getenv("USE_MOCK_BACKENDS") == "true" {
		zeroLogger.Warn("Running with in-memory mock backends")
		ledgerStore = mockbackend.NewMemoryLedgerStore()
		segmentStore = mockbackend.NewMemorySegmentStore()
		providers = mockbackend.NewFakeProvider()
		imageGenerator = mockbackend.NewFakeImageGenerator()
		frameExtractor = mockbackend.NewFakeFrameExtractor()
		anchorStore = mockbackend.NewFakeAnchorStore()
		characterResolver = mockbackend.NewFakeCharacterResolver(nil)
	} else {
		fluxConfig, err := config.GetFluxConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get flux config")
		}

		klingConfig, err := config.GetKlingConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get kling config")
		}

		runwayConfig, err := config.GetRunwayConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get runway config")
		}

		frameConfig, err := config.GetFrameServiceConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get frame service config")
		}

		s3Config, err := config.GetS3Config()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get s3 config")
		}

		dynamoConfig, err := config.GetDynamoConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get dynamo config")
		}

		authConfig, err := config.NewAuthorizerConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get authorizer config")
		}

		scriptApiUrl := os.Getenv("SCRIPT_API_URL")
		if scriptApiUrl == "" {
			log.Fatal().Msg("SCRIPT_API_URL environment variable not set")
		}

		sess := session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))

		s3Client := s3.New(sess)
		dynamoClient := dynamodb.New(sess)

		ledgerStore = adapters.NewDynamoLedgerStore(zeroLogger, dynamoClient, dynamoConfig)
		segmentStore = adapters.NewDynamoSegmentStore(zeroLogger, dynamoClient, dynamoConfig)

		klingClient := adapters.NewKlingVideoClient(zeroLogger, contentFetcher, klingConfig)
		runwayClient := adapters.NewRunwayVideoClient(zeroLogger, contentFetcher, runwayConfig)
		providers = adapters.NewProviderRegistry(zeroLogger, []adapters.ProviderRoute{
			{Prefix: "kling", Client: klingClient},
			{Prefix: "gen3", Client: runwayClient},
			{Prefix: "runway", Client: runwayClient},
		})

		imageGenerator = adapters.NewFluxImageClient(zeroLogger, contentFetcher, fluxConfig)
		frameExtractor = adapters.NewHTTPFrameExtractor(zeroLogger, contentFetcher, frameConfig)
		anchorStore = adapters.NewS3AnchorStore(s3Client, s3Config, contentFetcher)

		authorizer := adapters.NewCognitoAuthorizer(zeroLogger, contentFetcher, authConfig)
		characterResolver = adapters.NewCharacterResolver(zeroLogger, contentFetcher, authorizer, scriptApiUrl)
	}

	tokenLedger := services.NewTokenLedger(zeroLogger, ledgerStore)

	anchorGenerator := services.NewAnchorGenerator(zeroLogger, imageGenerator)

	chainRunner := services.NewChainRunner(zeroLogger, tokenLedger, segmentStore, providers,
		anchorGenerator, frameExtractor, anchorStore, characterResolver, chainConfig)

	chainDispatcher := services.NewChainDispatcher(zeroLogger, workerPool, chainRunner)

	statusChecker := services.NewSegmentStatusChecker(zeroLogger, segmentStore, providers, tokenLedger)

	generationController := controllers.NewGenerationController(zeroLogger, chainRunner, chainDispatcher,
		statusChecker, segmentStore, tokenLedger, anchorGenerator, chainConfig)

	ledgerController := controllers.NewLedgerController(zeroLogger, tokenLedger)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	authHandler, err := middleware.NewAuthHandler(jwksUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth handler!")
	}

	router.Use(authHandler.AuthMiddleware())

	generationController.RegisterRoutes(router)
	ledgerController.RegisterRoutes(router)

	err = router.Run(":8080")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
