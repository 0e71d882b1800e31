/*
Copyright 2026 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// This file provides redis client utilities.

package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	gredis "github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"

	utls "github.com/llm-d-incubation/frame-interpolation/internal/util/tls"
)

const (
	REDIS_PING_WAIT_SEC = 10
)

type RedisClientConfig struct {
	Url          string
	DbIdx        int
	EnableTLS    bool
	Insecure     bool
	Certificates utls.ClientFiles
	ServiceName  string
	Timeout      time.Duration // Timeout for socket operations: dial, read, write.
	MaxRetries   int           // Maximum number of retries before giving up. Default is 3 retries; -1 (not 0) disables retries.
	PoolTimeout  time.Duration // Amount of time client waits for connection if all connections are busy before returning an error.
}

func NewRedisClient(ctx context.Context, cnf *RedisClientConfig) (*gredis.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := klog.FromContext(ctx)
	if cnf == nil {
		err := fmt.Errorf("redis config was not provided")
		logger.Error(err, "NewRedisClient")
		return nil, err
	}
	if cnf.Url == "" {
		err := fmt.Errorf("redis config has empty url")
		logger.Error(err, "NewRedisClient")
		return nil, err
	}
	redisOps, err := gredis.ParseURL(cnf.Url)
	if err != nil {
		logger.Error(err, "NewRedisClient")
		return nil, err
	}
	if redisOps.ClientName == "" {
		hostname, _ := os.Hostname()
		suffix := uuid.NewString()[:8]
		if cnf.ServiceName != "" {
			redisOps.ClientName = fmt.Sprintf("%s-%s-%d-%s", cnf.ServiceName, hostname, os.Getpid(), suffix)
		} else {
			redisOps.ClientName = fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), suffix)
		}
	}
	if cnf.DbIdx > 0 {
		redisOps.DB = cnf.DbIdx
	}
	if cnf.Timeout != 0 {
		redisOps.DialTimeout = cnf.Timeout
		redisOps.ReadTimeout = cnf.Timeout
		redisOps.WriteTimeout = cnf.Timeout
	}
	redisOps.ContextTimeoutEnabled = true
	if cnf.MaxRetries != 0 {
		redisOps.MaxRetries = cnf.MaxRetries
	}
	if cnf.PoolTimeout != 0 {
		redisOps.PoolTimeout = cnf.PoolTimeout
	}
	if cnf.EnableTLS {
		tlsConfig, err := utls.ClientConfig(cnf.Insecure, cnf.Certificates)
		if err != nil {
			logger.Error(err, "NewRedisClient")
			return nil, err
		}
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisOps.TLSConfig = tlsConfig
	}

	rds := gredis.NewClient(redisOps)
	pctx, cancel := context.WithTimeout(ctx, REDIS_PING_WAIT_SEC*time.Second)
	defer cancel()
	if _, err := rds.Ping(pctx).Result(); err != nil {
		logger.Error(err, "NewRedisClient")
		rds.Close()
		return nil, err
	}
	logger.Info("NewRedisClient", "clientName", redisOps.ClientName)
	return rds, nil
}
