package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/comanda-app/comanda/internal/pkg/cache"
	"github.com/comanda-app/comanda/internal/pkg/database"
)

const (
	deviceMessagesKey  = "device:counters:messages"
	webhookStatusKey   = "webhook:counters:status"
	webhookMessagesKey = "webhook:counters:messages"
)

// AddDeviceMessage increments the pending message counter for a device in Redis
func AddDeviceMessage(deviceID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(deviceID), 10)
	return cache.GetClient().HIncrBy(ctx, deviceMessagesKey, field, 1).Err()
}

// AddWebhookStatusCall increments the per-device status webhook call counter
func AddWebhookStatusCall(deviceID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(deviceID), 10)
	return cache.GetClient().HIncrBy(ctx, webhookStatusKey, field, 1).Err()
}

// AddWebhookMessageCall increments the per-device message webhook call counter
func AddWebhookMessageCall(deviceID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(deviceID), 10)
	return cache.GetClient().HIncrBy(ctx, webhookMessagesKey, field, 1).Err()
}

// GetWebhookCalls returns the pending (not yet flushed) webhook call counts
// for a device as (status, message).
func GetWebhookCalls(deviceID uint) (int64, int64) {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(deviceID), 10)
	statusStr, _ := cache.GetClient().HGet(ctx, webhookStatusKey, field).Result()
	messageStr, _ := cache.GetClient().HGet(ctx, webhookMessagesKey, field).Result()
	status, _ := strconv.ParseInt(statusStr, 10, 64)
	message, _ := strconv.ParseInt(messageStr, 10, 64)
	return status, message
}

// FlushAll drains the message counters into the devices table. The webhook
// call counters stay in Redis; they feed the health endpoints only.
func FlushAll() error {
	return flushHashToTable(deviceMessagesKey, "devices", "message_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE devices SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
