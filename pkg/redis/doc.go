// Package redis connects to Redis with go-redis. The client backs
// queue.RedisStorage when NOTIFICATION_QUEUE_BACKEND=redis.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	repo := queue.NewRedisStorage(client, qcfg.RedisKeyPrefix)
package redis
