package app

import (
	"ssbprep/internal/cache"
	"ssbprep/internal/repository"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// App bundles the storage layer shared by the server and the seed tool
type App struct {
	StimulusRepo repository.StimulusRepo
	HistoryRepo  repository.HistoryRepo
	PoolCache    cache.PoolCache
	SessionCache cache.SessionCache
	Leaderboard  cache.LeaderboardCache
}

// New wires repositories on db and caches on rdb
func New(db *mongo.Database, rdb *redis.Client, poolTTL time.Duration) *App {
	return &App{
		StimulusRepo: repository.NewStimulusRepo(db),
		HistoryRepo:  repository.NewHistoryRepo(db),
		PoolCache:    cache.NewPoolCache(rdb, poolTTL),
		SessionCache: cache.NewSessionCache(rdb),
		Leaderboard:  cache.NewLeaderboardCache(rdb),
	}
}
