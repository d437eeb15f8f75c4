package repository

import (
	"context"
	"fmt"
	"strconv"

	"app/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// CartRedisStore はRedis上のカート実装。
// 数量は hash cart_<userID>（field=skuID, value=count）、
// チェック状態は set cart_selected_<userID> で持つ。
type CartRedisStore struct {
	client *redis.Client
}

// DI
func NewCartRedisStore(client *redis.Client) *CartRedisStore {
	return &CartRedisStore{client: client}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart_%d", userID)
}

func cartSelectedKey(userID int64) string {
	return fmt.Sprintf("cart_selected_%d", userID)
}

func (s *CartRedisStore) GetQuantities(ctx context.Context, userID int64) (map[int64]int64, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[int64]int64, len(raw))
	for field, value := range raw {
		skuID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		out[skuID] = count
	}
	return out, nil
}

func (s *CartRedisStore) GetSelected(ctx context.Context, userID int64) ([]int64, error) {
	members, err := s.client.SMembers(ctx, cartSelectedKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]int64, 0, len(members))
	for _, m := range members {
		skuID, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, skuID)
	}
	return out, nil
}

// 同一商品は数量を加算する（上書きしない）
func (s *CartRedisStore) Add(ctx context.Context, userID int64, skuID int64, qty int64, selected bool) error {
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, cartKey(userID), strconv.FormatInt(skuID, 10), qty)
	if selected {
		pipe.SAdd(ctx, cartSelectedKey(userID), skuID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// 数量とチェック状態を上書き
func (s *CartRedisStore) UpdateLine(ctx context.Context, userID int64, skuID int64, qty int64, selected bool) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, cartKey(userID), strconv.FormatInt(skuID, 10), qty)
	if selected {
		pipe.SAdd(ctx, cartSelectedKey(userID), skuID)
	} else {
		pipe.SRem(ctx, cartSelectedKey(userID), skuID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// 数量hashのfieldとチェックsetのmemberを同じID集合から組み立てる。
// 片方だけ消えて残る、を作らないための形。
func removePlan(skuIDs []int64) (fields []string, members []interface{}) {
	fields = make([]string, 0, len(skuIDs))
	members = make([]interface{}, 0, len(skuIDs))
	for _, id := range skuIDs {
		fields = append(fields, strconv.FormatInt(id, 10))
		members = append(members, id)
	}
	return fields, members
}

func (s *CartRedisStore) Remove(ctx context.Context, userID int64, skuIDs []int64) error {
	if len(skuIDs) == 0 {
		return nil
	}

	fields, members := removePlan(skuIDs)

	pipe := s.client.Pipeline()
	pipe.HDel(ctx, cartKey(userID), fields...)
	pipe.SRem(ctx, cartSelectedKey(userID), members...)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *CartRedisStore) SelectAll(ctx context.Context, userID int64, selected bool) error {
	skuIDs, err := s.client.HKeys(ctx, cartKey(userID)).Result()
	if err != nil {
		return err
	}
	if len(skuIDs) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(skuIDs))
	for _, id := range skuIDs {
		members = append(members, id)
	}

	if selected {
		return s.client.SAdd(ctx, cartSelectedKey(userID), members...).Err()
	}
	return s.client.SRem(ctx, cartSelectedKey(userID), members...).Err()
}

// 未ログインカートの取り込み内容。
// 数量は加算ではなく絶対値で上書きし、チェック状態は未ログイン側を正とする。
type mergePlan struct {
	quantities     map[string]interface{} // HSetに渡す絶対値（上書き）
	selectedAdd    []interface{}          // チェック済み → SAdd
	selectedRemove []interface{}          // 未チェック → SRem
}

func buildMergePlan(anon model.AnonCart) mergePlan {
	p := mergePlan{quantities: make(map[string]interface{}, len(anon))}

	for skuID, line := range anon {
		p.quantities[strconv.FormatInt(skuID, 10)] = line.Count
		if line.Selected {
			p.selectedAdd = append(p.selectedAdd, skuID)
		} else {
			p.selectedRemove = append(p.selectedRemove, skuID)
		}
	}
	return p
}

// 未ログインカートの取り込み。重複するskuは未ログイン側が勝つ。
func (s *CartRedisStore) Merge(ctx context.Context, userID int64, anon model.AnonCart) error {
	if len(anon) == 0 {
		return nil
	}

	plan := buildMergePlan(anon)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, cartKey(userID), plan.quantities)
	if len(plan.selectedAdd) > 0 {
		pipe.SAdd(ctx, cartSelectedKey(userID), plan.selectedAdd...)
	}
	if len(plan.selectedRemove) > 0 {
		pipe.SRem(ctx, cartSelectedKey(userID), plan.selectedRemove...)
	}
	_, err := pipe.Exec(ctx)
	return err
}
