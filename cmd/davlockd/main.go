// Command davlockd runs a standalone demonstration server exposing
// only the DAV lock surface (LOCK/UNLOCK/OPTIONS) over a working copy
// directory, backed by either an in-memory or a Redis lock store and
// gated by an Open Policy Agent readability policy.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/garyburd/redigo/redis"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/makebin200808/subversion/internal/authzrego"
	"github.com/makebin200808/subversion/internal/davlock"
	"github.com/makebin200808/subversion/internal/repo/memrepo"
	"github.com/makebin200808/subversion/internal/repo/redisrepo"
	"github.com/makebin200808/subversion/internal/reposfs"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	rootDir := flag.String("root", ".", "working copy directory whose paths are lockable")
	redisAddr := flag.String("redis", "", "Redis address for the lock store (empty uses an in-memory store)")
	redisPrefix := flag.String("redis-prefix", "davlock:", "key prefix for the Redis lock store")
	policyPath := flag.String("policy", "", "path to a Rego module exposing data.authz.read (empty allows every read)")
	flag.Parse()

	tree, err := reposfs.Open(*rootDir)
	if err != nil {
		log.Fatalf("davlockd: opening root %q: %v", *rootDir, err)
	}
	defer tree.Close()

	repo := buildRepository(*redisAddr, *redisPrefix)
	authzFunc := buildAuthz(*policyPath)

	provider := &davlock.Provider{Repo: repo, AuthzRead: authzFunc}
	hooks := davlock.NewHooks(provider)
	handler := &Handler{Hooks: hooks, Tree: tree}

	app := fiber.New(fiber.Config{
		Immutable:      true,
		RequestMethods: append(fiber.DefaultMethods[:], MethodLock, MethodUnlock),
	})
	app.All("/*", adaptor.HTTPHandler(withAuth(handler)))

	log.Infof("davlockd: listening on %s, serving locks under %s", *addr, *rootDir)
	if err := app.Listen(*addr); err != nil {
		log.Fatalf("davlockd: %v", err)
	}
}

func buildRepository(redisAddr, prefix string) davlock.Repository {
	if redisAddr == "" {
		return memrepo.New()
	}
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr) },
	}
	log.Infof("davlockd: using Redis lock store at %s", redisAddr)
	return redisrepo.New(pool, prefix)
}

func buildAuthz(policyPath string) davlock.AuthzReadFunc {
	module := allowAllReadModule("")
	if policyPath != "" {
		data, err := os.ReadFile(policyPath)
		if err != nil {
			log.Fatalf("davlockd: reading policy %q: %v", policyPath, err)
		}
		module = string(data)
	}

	q, err := authzrego.Compile(context.Background(), module)
	if err != nil {
		log.Fatalf("davlockd: compiling authorization policy: %v", err)
	}
	return q.Func()
}

// allowAllReadModule returns custom if non-empty, otherwise a policy
// granting every read — a sane default for the demo server, where
// requiring an operator to author a Rego module just to try LOCK/UNLOCK
// would be needless friction.
func allowAllReadModule(custom string) string {
	if custom != "" {
		return custom
	}
	return `package authz

read = true
`
}
