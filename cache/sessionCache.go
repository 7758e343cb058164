package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"booking-service/domain"

	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
)

const (
	cacheSession = "sessions:%s"
	sessionTTL   = 45 * time.Minute
)

// SessionCache keeps checkout sessions in Redis for the duration of
// checkout. Sessions have no identity beyond this cache until a booking is
// created from them.
type SessionCache struct {
	cli    *redis.Client
	logger *logrus.Logger
}

// Construct Redis client
func New(logger *logrus.Logger) *SessionCache {
	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	redisAddress := fmt.Sprintf("%s:%s", redisHost, redisPort)

	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})

	return &SessionCache{
		cli:    client,
		logger: logger,
	}
}

func (c *SessionCache) Ping() error {
	return c.cli.Ping().Err()
}

func (c *SessionCache) Save(session *domain.CheckoutSession) error {
	key := constructKey(session.ID)

	value, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return c.cli.Set(key, value, sessionTTL).Err()
}

func (c *SessionCache) Get(id string) (*domain.CheckoutSession, error) {
	value, err := c.cli.Get(constructKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrSessionNotFound
		}

		c.logger.WithFields(logrus.Fields{"path": "cache/session"}).Error("Failed to read session: ", err)

		return nil, err
	}

	session := &domain.CheckoutSession{}
	if err := json.Unmarshal(value, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (c *SessionCache) Delete(id string) error {
	return c.cli.Del(constructKey(id)).Err()
}

func constructKey(id string) string {
	return fmt.Sprintf(cacheSession, id)
}
