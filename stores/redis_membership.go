package stores

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisMembershipStore stores user -> group/role membership in Redis sets
// (keys: grpmem:{userID}, rolemem:{userID}).
type RedisMembershipStore struct {
	client   *redis.Client
	groupFmt string
	roleFmt  string
}

func NewRedisMembershipStore(client *redis.Client) *RedisMembershipStore {
	return &RedisMembershipStore{client: client, groupFmt: "grpmem:%s", roleFmt: "rolemem:%s"}
}

func (r *RedisMembershipStore) groupKey(userID string) string {
	return fmt.Sprintf(r.groupFmt, userID)
}

func (r *RedisMembershipStore) roleKey(userID string) string {
	return fmt.Sprintf(r.roleFmt, userID)
}

func (r *RedisMembershipStore) AssignGroup(ctx context.Context, userID, groupID string) error {
	return r.client.SAdd(ctx, r.groupKey(userID), groupID).Err()
}

func (r *RedisMembershipStore) AssignRole(ctx context.Context, userID, roleID string) error {
	return r.client.SAdd(ctx, r.roleKey(userID), roleID).Err()
}

func (r *RedisMembershipStore) RemoveGroup(ctx context.Context, userID, groupID string) error {
	return r.client.SRem(ctx, r.groupKey(userID), groupID).Err()
}

func (r *RedisMembershipStore) RemoveRole(ctx context.Context, userID, roleID string) error {
	return r.client.SRem(ctx, r.roleKey(userID), roleID).Err()
}

func (r *RedisMembershipStore) ListGroups(ctx context.Context, userID string) ([]string, error) {
	res, err := r.client.SMembers(ctx, r.groupKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	// SMEMBERS order is unspecified; sort for deterministic resolution
	sort.Strings(res)
	return res, nil
}

func (r *RedisMembershipStore) ListRoles(ctx context.Context, userID string) ([]string, error) {
	res, err := r.client.SMembers(ctx, r.roleKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(res)
	return res, nil
}
