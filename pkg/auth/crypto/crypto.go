package crypto

import "golang.org/x/crypto/bcrypt"

const DefaultCost = 12

type Hasher struct{ cost int }

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches hash. Malformed hashes are a mismatch.
func (h *Hasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
