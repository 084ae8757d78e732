package session

// Redisキープレフィックス
const (
	// KeyPrefixSession はポリシーセッション状態のキー
	KeyPrefixSession = "policy:session:"
)
