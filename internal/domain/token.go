package domain

// TokenKind identifies what a recognizer saw.
type TokenKind string

// Recognition token kinds.
const (
	TokenText    TokenKind = "text"
	TokenBarcode TokenKind = "barcode"
)

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == TokenText || k == TokenBarcode
}

// Token is a single recognition event from the camera pipeline.
type Token struct {
	Kind  TokenKind `json:"kind"`
	Value string    `json:"value"`
}

// KeyKind is the shape of a lookup key.
type KeyKind string

// Lookup key shapes.
const (
	KeyISBN  KeyKind = "isbn"
	KeyTitle KeyKind = "title"
)

// LookupKey is the normalized string a token reduces to.
// It is comparable and used to deduplicate in-flight lookups.
type LookupKey struct {
	Value string  `json:"value"`
	Kind  KeyKind `json:"kind"`
}

// IsISBN reports whether the key is a 10 or 13 character ISBN.
func (k LookupKey) IsISBN() bool {
	return k.Kind == KeyISBN
}

func (k LookupKey) String() string {
	return string(k.Kind) + ":" + k.Value
}
