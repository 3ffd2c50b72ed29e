package entity

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// InteractionKind - закрытый набор типов взаимодействий
// Новый тип = новая константа + вес в InteractionWeights
type InteractionKind string

const (
	InteractionView     InteractionKind = "view"
	InteractionLike     InteractionKind = "like"
	InteractionPurchase InteractionKind = "purchase"
)

// InteractionWeights - веса для расчета рекомендаций по категориям
var InteractionWeights = map[InteractionKind]int{
	InteractionPurchase: 5,
	InteractionLike:     3,
	InteractionView:     1,
}

// Valid проверяет что тип взаимодействия известен
func (k InteractionKind) Valid() bool {
	_, ok := InteractionWeights[k]
	return ok
}

// Weight возвращает вес типа, 0 для неизвестного
func (k InteractionKind) Weight() int {
	return InteractionWeights[k]
}

// Role - роль аккаунта
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// RoleSet - множество ролей, хранится в БД как "admin,buyer,seller"
type RoleSet []Role

// NewRoleSet создает множество без дубликатов
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if r == "" || set.Has(r) {
			continue
		}
		set = append(set, r)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

// Has проверяет наличие роли
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Strings возвращает роли строками (для JWT claims)
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// GormDataType указывает тип колонки для миграций
func (RoleSet) GormDataType() string {
	return "text"
}

// Value реализует driver.Valuer
func (s RoleSet) Value() (driver.Value, error) {
	return strings.Join(s.Strings(), ","), nil
}

// Scan реализует sql.Scanner
func (s *RoleSet) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = RoleSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", src)
	}

	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, Role(part))
		}
	}
	*s = NewRoleSet(roles...)
	return nil
}
