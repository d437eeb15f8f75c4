package repository

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

// =====================
// 未ログインカート取り込みの組み立て
// =====================

// 数量は加算ではなく、未ログイン側の値で上書きされる
func TestBuildMergePlan_QuantitiesOverwrite(t *testing.T) {
	anon := model.AnonCart{
		1: {Count: 5, Selected: true},
		2: {Count: 2, Selected: true},
	}

	plan := buildMergePlan(anon)

	//HSetに渡るのは絶対値。Redis側に既に何個あっても5と2になる
	assert.Equal(t, map[string]interface{}{
		"1": int64(5),
		"2": int64(2),
	}, plan.quantities)
}

// チェック状態は未ログイン側が正。チェック済みはSAdd、未チェックはSRemへ
func TestBuildMergePlan_SelectionFollowsAnonSide(t *testing.T) {
	anon := model.AnonCart{
		1: {Count: 5, Selected: true},
		2: {Count: 2, Selected: false},
		3: {Count: 1, Selected: false},
	}

	plan := buildMergePlan(anon)

	assert.ElementsMatch(t, []interface{}{int64(1)}, plan.selectedAdd)

	//Redis側でチェック済みでも、未ログイン側が未チェックなら外される
	assert.ElementsMatch(t, []interface{}{int64(2), int64(3)}, plan.selectedRemove)
}

func TestBuildMergePlan_EmptyCart(t *testing.T) {
	plan := buildMergePlan(model.AnonCart{})

	assert.Empty(t, plan.quantities)
	assert.Empty(t, plan.selectedAdd)
	assert.Empty(t, plan.selectedRemove)
}

// =====================
// 購入後の掃除の組み立て
// =====================

// 数量hashとチェックsetの両方が同じID集合から消える
func TestRemovePlan_CoversHashAndSet(t *testing.T) {
	fields, members := removePlan([]int64{1, 2})

	assert.Equal(t, []string{"1", "2"}, fields)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, members)
	assert.Len(t, members, len(fields))
}
