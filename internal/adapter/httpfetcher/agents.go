package httpfetcher

import (
	"math/rand"
	"net/http"
	"net/url"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// agentPool rotates user agents and outgoing proxies.
type agentPool struct {
	userAgents []string
	proxies    []string

	mu         sync.Mutex
	proxyIndex int
}

func newAgentPool() *agentPool {
	return &agentPool{userAgents: defaultUserAgents}
}

func (p *agentPool) userAgent() string {
	if len(p.userAgents) == 1 {
		return p.userAgents[0]
	}
	return p.userAgents[rand.Intn(len(p.userAgents))]
}

// proxy is an http.Transport Proxy func. Without configured proxies it
// falls back to the environment.
func (p *agentPool) proxy(req *http.Request) (*url.URL, error) {
	if len(p.proxies) == 0 {
		return http.ProxyFromEnvironment(req)
	}
	p.mu.Lock()
	raw := p.proxies[p.proxyIndex]
	p.proxyIndex = (p.proxyIndex + 1) % len(p.proxies)
	p.mu.Unlock()
	return url.Parse(raw)
}
