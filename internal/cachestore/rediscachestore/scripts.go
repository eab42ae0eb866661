package rediscachestore

import "github.com/szhtp/ucc-cache/internal/redis"

// getSetExistingScript replaces the value of an existing key and returns the
// previous one. Missing keys are left untouched and reply nil.
//
// KEYS[1] = real key
// ARGV[1] = new value
// ARGV[2] = expiry in milliseconds, 0 keeps the key persistent
var getSetExistingScript = redis.NewScript(`
if redis.call("exists", KEYS[1]) == 0 then
	return false
end
local old = redis.call("getset", KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("pexpire", KEYS[1], ttl)
end
return old
`)
