package config

import "time"

// StoreConfig selects the durable store backing every repository.
type StoreConfig struct {
	Driver  string            `yaml:"driver"` // memory, file, redis, mongodb
	FileDir string            `yaml:"file_dir"`
	Redis   *RedisStoreConfig `yaml:"redis"`
	MongoDB *MongoStoreConfig `yaml:"mongodb"`
}

type RedisStoreConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"pool_size"`
	Timeout   time.Duration `yaml:"timeout"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type MongoStoreConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	PoolSize   int           `yaml:"pool_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver:  getEnv("STORE_DRIVER", "file"),
		FileDir: getEnv("STORE_FILE_DIR", "./data"),
		Redis: &RedisStoreConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			PoolSize:  getEnvAsInt("REDIS_POOL_SIZE", 4),
			Timeout:   getEnvAsDuration("REDIS_TIMEOUT", 3*time.Second),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "safetravel:"),
		},
		MongoDB: &MongoStoreConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "safetravel"),
			Collection: getEnv("MONGODB_COLLECTION", "safetravel_kv"),
			PoolSize:   getEnvAsInt("MONGODB_POOL_SIZE", 4),
			Timeout:    getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
	}
}
