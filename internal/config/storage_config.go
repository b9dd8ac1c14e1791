package config

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
)

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetSQLitePath() string
	GetRedisURL() string
	GetStorageQuotaBytes() int
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() StorageBackend {
	switch backend := StorageBackend(GetEnv("STORAGE_BACKEND", string(StorageSQLite))); backend {
	case StorageMemory, StorageSQLite, StorageRedis:
		return backend
	default:
		return StorageSQLite
	}
}

func (Storage) GetSQLitePath() string {
	return GetEnv("SQLITE_PATH", "./data/sessions.db")
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

// GetStorageQuotaBytes caps the in-memory backend, like a browser's 5MB localStorage quota
func (Storage) GetStorageQuotaBytes() int {
	return GetInt("STORAGE_QUOTA_BYTES", 5*1024*1024)
}
