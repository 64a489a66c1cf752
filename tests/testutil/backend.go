package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// FakeMessage is a message as the backend serializes it.
type FakeMessage struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	HTMLContent string `json:"htmlContent,omitempty"`
	Code        string `json:"code,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// FakeBackend is an in-memory implementation of the temp-mail REST API
// served over httptest. It records request counts per mailbox and can be
// told to fail or rate-limit requests.
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	mailboxes  map[string][]FakeMessage
	order      []string
	fetches    map[string]int
	failStatus int
	rateLimits int
	delay      time.Duration
	next       int
}

// NewFakeBackend starts a fake backend and closes it when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		mailboxes: make(map[string][]FakeMessage),
		fetches:   make(map[string]int),
	}

	r := gin.New()
	r.Use(b.faults)
	api := r.Group("/api")
	{
		api.GET("/email/new", b.createEmail)
		api.GET("/email/:email/messages", b.getMessages)
		api.GET("/email/list", b.listEmails)
		api.DELETE("/email/:email", b.deleteEmail)
	}

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddMailbox registers address so message fetches for it succeed.
func (b *FakeBackend) AddMailbox(address string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mailboxes[address]; !ok {
		b.mailboxes[address] = []FakeMessage{}
		b.order = append(b.order, address)
	}
}

// Deliver appends a message to address, registering the mailbox if needed.
func (b *FakeBackend) Deliver(address string, msg FakeMessage) {
	b.AddMailbox(address)
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg.To == "" {
		msg.To = address
	}
	b.mailboxes[address] = append(b.mailboxes[address], msg)
}

// Fetches returns how many message fetches address has received.
func (b *FakeBackend) Fetches(address string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[address]
}

// FailWith makes every request answer with status until reset with 0.
func (b *FakeBackend) FailWith(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus = status
}

// RateLimit makes the next n requests answer 429 with Retry-After: 0.
func (b *FakeBackend) RateLimit(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rateLimits = n
}

// Delay holds every request for d before answering.
func (b *FakeBackend) Delay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

func (b *FakeBackend) faults(c *gin.Context) {
	b.mu.Lock()
	delay := b.delay
	status := b.failStatus
	limited := b.rateLimits > 0
	if limited {
		b.rateLimits--
	}
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if limited {
		c.Header("Retry-After", "0")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "slow down"})
		return
	}
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": "injected failure"})
		return
	}
	c.Next()
}

func (b *FakeBackend) createEmail(c *gin.Context) {
	b.mu.Lock()
	b.next++
	address := "box" + strconv.Itoa(b.next) + "@tmp.test"
	b.mu.Unlock()

	b.AddMailbox(address)
	c.JSON(http.StatusOK, gin.H{"status": "success", "email": address})
}

func (b *FakeBackend) getMessages(c *gin.Context) {
	address := c.Param("email")

	b.mu.Lock()
	b.fetches[address]++
	msgs, ok := b.mailboxes[address]
	out := append([]FakeMessage(nil), msgs...)
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid mailbox address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"email":    address,
		"count":    len(out),
		"messages": out,
	})
}

func (b *FakeBackend) listEmails(c *gin.Context) {
	b.mu.Lock()
	emails := append([]string(nil), b.order...)
	b.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(emails), "emails": emails})
}

func (b *FakeBackend) deleteEmail(c *gin.Context) {
	address := c.Param("email")

	b.mu.Lock()
	_, ok := b.mailboxes[address]
	if ok {
		delete(b.mailboxes, address)
		for i, a := range b.order {
			if a == address {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": fmt.Sprintf("unknown mailbox %s", address)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "mailbox deleted"})
}
