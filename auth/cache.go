package auth

import "sync"

// Derived V3 signing keys are cached per service and revalidated against the
// date and credential that produced them, so repeated calls within one day
// skip the HMAC chain. A new day or a rotated secret replaces the entry.
type derivedKey struct {
	credential Credential
	date       string
	key        []byte
}

type derivedKeyCache struct {
	values map[string]derivedKey
	mutex  sync.RWMutex
}

func newDerivedKeyCache() derivedKeyCache {
	return derivedKeyCache{values: map[string]derivedKey{}}
}

func (c *derivedKeyCache) Get(credential Credential, service, date string) []byte {
	c.mutex.RLock()
	if v, ok := c.lookup(service, credential, date); ok {
		c.mutex.RUnlock()
		return v
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if v, ok := c.lookup(service, credential, date); ok {
		return v
	}
	v := deriveSigningKey(credential.SecretKey, service, date)
	c.values[service] = derivedKey{credential: credential, date: date, key: v}
	return v
}

func (c *derivedKeyCache) lookup(service string, credential Credential, date string) ([]byte, bool) {
	v, ok := c.values[service]
	if !ok || v.date != date || !sameSecrets(v.credential, credential) {
		return nil, false
	}
	return v.key, true
}

func sameSecrets(a, b Credential) bool {
	return a.SecretID == b.SecretID && a.SecretKey == b.SecretKey && a.Token == b.Token
}

func deriveSigningKey(secretKey, service, date string) []byte {
	k := hmacSHA256([]byte("TC3"+secretKey), []byte(date))
	k = hmacSHA256(k, []byte(service))
	return hmacSHA256(k, []byte(v3RequestType))
}

var v3KeyCache = newDerivedKeyCache()
