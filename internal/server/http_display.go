package server

import (
	"fmt"
	"strings"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.TLSConfig.Enabled() {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s:%s\n", scheme, s.Host, s.Port)
	fmt.Printf("Default strategy: %s, job source: %s\n", s.DefaultStrategy, s.Jobs.Name())
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints lists the registered routes.
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	for _, rt := range routes {
		method, path, _ := strings.Cut(rt.pattern, " ")
		line := fmt.Sprintf("  %-4s %-22s - %s", method, path, rt.description)
		if rt.protected && len(s.APIKeys) > 0 {
			line += " (requires API key)"
		}
		fmt.Println(line)
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Send 'X-API-Key: <your-key>' or 'Authorization: Bearer <your-key>' on protected endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
