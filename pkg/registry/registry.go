package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed wallets.yaml
var defaultWallets []byte

// Wallet is a designated community wallet.
type Wallet struct {
	Address string `yaml:"address" json:"address"`
	Name    string `yaml:"name" json:"name"`
	Link    string `yaml:"link" json:"link"`
}

type file struct {
	Wallets []Wallet `yaml:"wallets"`
}

// Registry is an immutable address → wallet mapping.
type Registry struct {
	wallets map[string]Wallet
}

// Default returns the registry shipped with the binary.
func Default() *Registry {
	r, err := Parse(defaultWallets)
	if err != nil {
		panic(fmt.Sprintf("embedded community wallet registry: %v", err))
	}
	return r
}

// Load reads a registry from path, or returns Default when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read community wallets %s: %w", path, err)
	}
	return Parse(bz)
}

// Parse decodes a YAML registry document.
func Parse(bz []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(bz, &f); err != nil {
		return nil, fmt.Errorf("decode community wallets: %w", err)
	}
	r := &Registry{wallets: make(map[string]Wallet, len(f.Wallets))}
	for i, w := range f.Wallets {
		key := normalize(w.Address)
		if key == "" {
			return nil, fmt.Errorf("community wallet %d: empty address", i)
		}
		if _, dup := r.wallets[key]; dup {
			return nil, fmt.Errorf("community wallet %s listed twice", key)
		}
		w.Address = key
		r.wallets[key] = w
	}
	return r, nil
}

// Lookup returns the wallet registered under address.
func (r *Registry) Lookup(address string) (Wallet, bool) {
	if r == nil {
		return Wallet{}, false
	}
	w, ok := r.wallets[normalize(address)]
	return w, ok
}

// Contains reports registry membership.
func (r *Registry) Contains(address string) bool {
	_, ok := r.Lookup(address)
	return ok
}

// Len is the number of registered wallets.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.wallets)
}

// All returns every wallet ordered by address.
func (r *Registry) All() []Wallet {
	out := make([]Wallet, 0, r.Len())
	if r == nil {
		return out
	}
	for _, w := range r.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(address), "0x"))
}
