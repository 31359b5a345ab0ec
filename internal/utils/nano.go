package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	storageKeySize     = 32
	storageKeyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// StorageKey mints an opaque blob-storage key for a document payload.
func StorageKey() string {
	return gonanoid.MustGenerate(storageKeyAlphabet, storageKeySize)
}
