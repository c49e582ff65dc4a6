package repository

// KeyPrefix - префиксы для разных типов ключей
type KeyPrefix string

const (
	PrefixLink  KeyPrefix = "link"  // link:code -> hash
	PrefixIndex KeyPrefix = "links" // set of every stored code
)

// KeyBuilder - построитель ключей Redis
type KeyBuilder struct {
	namespace string // optional, lets several deployments share one Redis
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// Build создает ключ с префиксом и опциональным namespace
func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

func (k *KeyBuilder) Link(code string) string {
	return k.Build(PrefixLink, code)
}

func (k *KeyBuilder) Index() string {
	return k.Build(PrefixIndex)
}
