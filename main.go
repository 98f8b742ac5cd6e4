package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/beka-birhanu/profesores-api/api"
	gameapi "github.com/beka-birhanu/profesores-api/api/game"
	api_i "github.com/beka-birhanu/profesores-api/api/i"
	"github.com/beka-birhanu/profesores-api/api/identity"
	"github.com/beka-birhanu/profesores-api/board"
	"github.com/beka-birhanu/profesores-api/config"
	"github.com/beka-birhanu/profesores-api/dice"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/infrastruture/lock"
	logger "github.com/beka-birhanu/profesores-api/infrastruture/log"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo/memory"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo/sqlstore"
	"github.com/beka-birhanu/profesores-api/infrastruture/token"
	"github.com/beka-birhanu/profesores-api/service"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/beka-birhanu/profesores-api/ws"
	"github.com/redis/go-redis/v9"
	"github.com/sasha-s/go-deadlock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Global variables for dependencies
var (
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	userRepo       i.UserRepo
	roomRepo       i.RoomRepo
	playerRepo     i.PlayerRepo
	gameRepo       i.GameRepo
	gameLocker     game.Locker
	boardGenerator *board.Generator
	gameEngine     *game.Engine
	wsHub          *ws.Hub
	gameHub        *service.GameHub
	roomService    *service.Rooms
	jwtTokenizer   i.Tokenizer
	authService    *service.Auth
	authController api_i.Controller
	roomController api_i.Controller
	gameController api_i.Controller
	hubController  api_i.Controller
	router         *api.Router
	appLogger      i.Logger
)

// newLogger creates a component logger or stops the process.
func newLogger(prefix, color string) i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initMongoRepos(ctx context.Context, client *mongo.Client) {
	users := repo.NewUserRepo(client, config.Envs.DBName, "users")
	players := repo.NewPlayerRepo(client, config.Envs.DBName, "players")
	if err := users.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating user indexes: %v", err))
		os.Exit(1)
	}
	if err := players.EnsureIndexes(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Creating player indexes: %v", err))
		os.Exit(1)
	}

	userRepo = users
	playerRepo = players
	rooms := repo.NewRoomRepo(client, config.Envs.DBName, "rooms", players)
	roomRepo = rooms
	gameRepo = repo.NewGameRepo(client, config.Envs.DBName, "games", players, rooms)
	appLogger.Info("MongoDB repositories initialized")
}

func initSQLiteRepos() {
	db, err := sqlstore.Open(config.Envs.SQLitePath)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Opening SQLite store: %v", err))
		os.Exit(1)
	}

	userRepo = sqlstore.NewUserRepo(db)
	playerRepo = sqlstore.NewPlayerRepo(db)
	roomRepo = sqlstore.NewRoomRepo(db)
	gameRepo = sqlstore.NewGameRepo(db)
	appLogger.Info(fmt.Sprintf("SQLite repositories initialized at %s", config.Envs.SQLitePath))
}

func initMemoryRepos() {
	store := memory.New()
	userRepo = store.Users()
	playerRepo = store.Players()
	roomRepo = store.Rooms()
	gameRepo = store.Games()
	appLogger.Warning("Using in-memory repositories; nothing survives a restart")
}

func initLocker(ctx context.Context) {
	if config.Envs.RedisAddr == "" {
		gameLocker = game.NewKeyedLocker()
		appLogger.Info("In-process game locker initialized")
		return
	}

	redisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}

	var err error
	gameLocker, err = lock.NewRedisLocker(&lock.Config{
		Client: redisClient,
		TTL:    time.Duration(config.Envs.LockTTLSeconds) * time.Second,
		Logger: newLogger("GAME-LOCK", config.ColorYellow),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating redis game locker: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Redis game locker initialized")
}

func initBoardGenerator() {
	catalog := board.DefaultCatalog()
	if config.Envs.CatalogPath != "" {
		var err error
		catalog, err = board.LoadCatalog(config.Envs.CatalogPath)
		if err != nil {
			appLogger.Error(fmt.Sprintf("Loading board catalog: %v", err))
			os.Exit(1)
		}
	}

	var err error
	boardGenerator, err = board.NewGenerator(catalog)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating board generator: %v", err))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Board generator initialized with %d professors and %d bullies", len(catalog.Hazards), len(catalog.Shortcuts)))
}

func initGameEngine() {
	var err error
	gameEngine, err = game.NewEngine(&game.Config{
		Games:     gameRepo,
		Rooms:     roomRepo,
		Boards:    boardGenerator,
		Die:       dice.NewRandom(uint64(time.Now().UnixNano())),
		Locker:    gameLocker,
		Logger:    newLogger("GAME-ENGINE", config.ColorCyan),
		BoardSize: config.Envs.BoardSize,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game engine: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Game engine initialized")
}

func initHubs() {
	var err error
	wsHub, err = ws.NewHub(&ws.Config{
		AllowedOrigins: config.Envs.WSAllowedOrigins,
		Logger:         newLogger("WS-HUB", config.ColorBlue),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating websocket hub: %v", err))
		os.Exit(1)
	}

	gameHub, err = service.NewGameHub(gameEngine, wsHub, newLogger("GAME-HUB", config.ColorMagenta))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game hub: %v", err))
		os.Exit(1)
	}

	wsHub.SetClientRequestHandler(gameHub.Handle)
	wsHub.SetDisconnectHandler(gameHub.Disconnected)
	appLogger.Info("Game hub initialized")
}

func initRoomService() {
	var err error
	roomService, err = service.NewRoomService(&service.RoomsConfig{
		Rooms:   roomRepo,
		Players: playerRepo,
		Users:   userRepo,
		Engine:  gameEngine,
		Locker:  gameLocker,
		Logger:  newLogger("ROOMS", config.ColorGreen),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating room service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Room service initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	var err error
	authService, err = service.NewAuthService(userRepo, jwtTokenizer)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initControllers() {
	var err error
	if authController, err = identity.NewAccountController(authService); err != nil {
		appLogger.Error(fmt.Sprintf("Creating account controller: %v", err))
		os.Exit(1)
	}

	timeout := time.Duration(config.Envs.RequestSeconds) * time.Second
	if roomController, err = gameapi.NewRoomController(roomService, timeout); err != nil {
		appLogger.Error(fmt.Sprintf("Creating room controller: %v", err))
		os.Exit(1)
	}
	if gameController, err = gameapi.NewGameController(gameHub, gameEngine, timeout); err != nil {
		appLogger.Error(fmt.Sprintf("Creating game controller: %v", err))
		os.Exit(1)
	}
	if hubController, err = gameapi.NewHubController(wsHub); err != nil {
		appLogger.Error(fmt.Sprintf("Creating hub controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Controllers initialized")
}

// initDeadlockDetector keeps go-deadlock reporting without letting it exit the process.
func initDeadlockDetector() {
	timeout := time.Duration(config.Envs.DeadlockSeconds) * time.Second
	deadlock.Opts.DeadlockTimeout = timeout
	deadlock.Opts.OnPotentialDeadlock = func() {
		appLogger.Error(fmt.Sprintf("Lock held longer than %s; owner and waiter stacks were written to stderr", timeout))
	}
	appLogger.Info("Deadlock detector initialized")
}

func initRouter(identifier i.Identifier) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Mode:                    config.Envs.GinMode,
		Controllers:             []api_i.Controller{authController, roomController, gameController, hubController},
		AuthorizationMiddleware: identity.Authoriz(identifier),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	// Initialize dependencies
	var err error
	appLogger, err = logger.New("APP", config.ColorGreen, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating app logger: %v\n", err)
		os.Exit(1)
	}

	initDeadlockDetector()

	switch config.Envs.StoreDriver {
	case config.StoreMongo:
		initMongo(ctx)
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()
		initMongoRepos(ctx, mongoClient)
	case config.StoreSQLite:
		initSQLiteRepos()
	default:
		initMemoryRepos()
	}

	initLocker(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	initBoardGenerator()
	initGameEngine()
	initHubs()
	initRoomService()
	initJWTTokenizer()
	initAuthService()
	initControllers()
	initRouter(authService)

	// Run HTTP server
	if err := router.Run(); err != nil {
		appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		os.Exit(1)
	}
}
