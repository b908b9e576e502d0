package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
)

// RedisIdentityDirectory is a Redis implementation of the IdentityDirectory
// interface. Each principal lives as JSON under kana:principal:<id>, with
// kana:wallet:<addr> and kana:email:<email> index keys pointing at the id.
// Index claims go through SETNX, so two writers racing for one wallet or
// email resolve to a single owner.
type RedisIdentityDirectory struct {
	client *redis.Client
}

// NewRedisIdentityDirectory creates a new Redis identity directory.
func NewRedisIdentityDirectory(client *redis.Client) ports.IdentityDirectory {
	return &RedisIdentityDirectory{client: client}
}

func principalKey(id string) string  { return "kana:principal:" + id }
func walletIndexKey(a string) string { return "kana:wallet:" + a }
func emailIndexKey(e string) string  { return "kana:email:" + e }

// FindByWallet returns the principal owning a wallet address.
func (d *RedisIdentityDirectory) FindByWallet(ctx context.Context, walletAddress string) (*core.Principal, error) {
	return d.findByIndex(ctx, walletIndexKey(walletAddress))
}

// FindByEmail returns the principal owning an email.
func (d *RedisIdentityDirectory) FindByEmail(ctx context.Context, email string) (*core.Principal, error) {
	return d.findByIndex(ctx, emailIndexKey(email))
}

func (d *RedisIdentityDirectory) findByIndex(ctx context.Context, indexKey string) (*core.Principal, error) {
	id, err := d.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, core.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal index: %w", err)
	}
	return d.load(ctx, id)
}

func (d *RedisIdentityDirectory) load(ctx context.Context, id string) (*core.Principal, error) {
	val, err := d.client.Get(ctx, principalKey(id)).Result()
	if err == redis.Nil {
		return nil, core.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	var p core.Principal
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal principal: %w", err)
	}
	return &p, nil
}

func (d *RedisIdentityDirectory) save(ctx context.Context, id string, p *core.Principal) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}
	if err := d.client.Set(ctx, principalKey(id), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store principal: %w", err)
	}
	return nil
}

// UpsertWalletPrincipal creates a principal for the wallet if absent, or
// bumps its last-login timestamp if present.
func (d *RedisIdentityDirectory) UpsertWalletPrincipal(ctx context.Context, walletAddress string) (*core.Principal, error) {
	return d.upsert(ctx, walletIndexKey(walletAddress), func(now time.Time) *core.Principal {
		return &core.Principal{
			WalletAddress: walletAddress,
			CreatedAt:     now,
			Preferences:   make(map[string]interface{}),
		}
	}, core.MethodWallet)
}

// UpsertOAuthPrincipal creates a principal for the email if absent, or
// bumps its last-login timestamp if present.
func (d *RedisIdentityDirectory) UpsertOAuthPrincipal(ctx context.Context, email string) (*core.Principal, error) {
	return d.upsert(ctx, emailIndexKey(email), func(now time.Time) *core.Principal {
		return &core.Principal{
			Email:       email,
			CreatedAt:   now,
			Preferences: make(map[string]interface{}),
		}
	}, core.MethodGoogle)
}

func (d *RedisIdentityDirectory) upsert(ctx context.Context, indexKey string, create func(time.Time) *core.Principal, method core.AuthMethod) (*core.Principal, error) {
	now := time.Now()

	id, err := d.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		id = uuid.New().String()
		ok, err := d.client.SetNX(ctx, indexKey, id, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim principal index: %w", err)
		}
		if ok {
			p := create(now)
			p.LastLogin = now
			p.AddMethod(method)
			if err := d.save(ctx, id, p); err != nil {
				return nil, err
			}
			return p, nil
		}
		// Lost the creation race; fall through to the winner's record
		id, err = d.client.Get(ctx, indexKey).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve principal index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to resolve principal index: %w", err)
	}

	p, err := d.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p.LastLogin = now
	p.AddMethod(method)
	if err := d.save(ctx, id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// LinkWallet attaches a wallet to the principal owning email.
func (d *RedisIdentityDirectory) LinkWallet(ctx context.Context, email, walletAddress string) (*core.Principal, error) {
	id, err := d.client.Get(ctx, emailIndexKey(email)).Result()
	if err == redis.Nil {
		return nil, core.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal index: %w", err)
	}

	p, err := d.load(ctx, id)
	if err != nil {
		return nil, err
	}

	claimed, err := d.client.SetNX(ctx, walletIndexKey(walletAddress), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim wallet index: %w", err)
	}
	if !claimed {
		owner, err := d.client.Get(ctx, walletIndexKey(walletAddress)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve wallet index: %w", err)
		}
		if owner != id {
			return nil, core.ErrConflict
		}
		// Already linked to this principal
		return p, nil
	}

	if p.WalletAddress != "" && p.WalletAddress != walletAddress {
		// The principal already carries a different wallet; release the claim
		d.client.Del(ctx, walletIndexKey(walletAddress))
		return nil, core.ErrConflict
	}

	p.WalletAddress = walletAddress
	p.AddMethod(core.MethodWallet)
	if err := d.save(ctx, id, p); err != nil {
		return nil, err
	}

	return p, nil
}
