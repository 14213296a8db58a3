// cmd/container.go
//
// Root composition root. Owns infrastructure (Redis, file storage, the OCR
// service client) and the session registry. This is the only place that
// knows about every module.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/relayhr/doccapture/pkg/config"
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/docstep"
	"github.com/relayhr/doccapture/pkg/docupload"
	"github.com/relayhr/doccapture/pkg/fsx"
	"github.com/relayhr/doccapture/pkg/fsx/fsxlocal"
	"github.com/relayhr/doccapture/pkg/fsx/fsxs3"
	"github.com/relayhr/doccapture/pkg/jobx"
	"github.com/relayhr/doccapture/pkg/jobx/jobxmemory"
	"github.com/relayhr/doccapture/pkg/jobx/jobxredis"
	"github.com/relayhr/doccapture/pkg/kernel"
	"github.com/relayhr/doccapture/pkg/logx"
	"github.com/relayhr/doccapture/pkg/ocrclient"
)

// Container holds shared infrastructure and the live sessions.
type Container struct {
	Config *config.Config

	// Infrastructure
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client
	Remote     *ocrclient.Client
	Jobs       *jobx.Client

	// Live capture sessions
	Sessions *sessionRegistry
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}
	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: Redis, file storage, OCR service
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Redis (optional; the job queue falls back to in-memory)
	if c.Config.Redis.Enabled() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("  ✅ Redis connected")
	} else {
		logx.Info("  ⚪ Redis not configured, using in-memory job queue")
	}

	// 2. File storage
	c.initFileStorage()

	// 3. OCR service client
	c.Remote = ocrclient.NewClient(c.Config.OCR.BaseURL,
		ocrclient.WithAuthToken(c.Config.OCR.APIKey),
		ocrclient.WithMaxRetries(c.Config.OCR.MaxRetries),
		ocrclient.WithHTTPClient(&http.Client{Timeout: c.Config.OCR.Timeout}),
	)
	logx.Infof("  ✅ OCR service client configured (%s)", c.Config.OCR.BaseURL)

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(awsCfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, c.Config.Storage.AWSBucket, c.Config.Storage.KeyPrefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)",
			c.Config.Storage.AWSBucket, c.Config.Storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(c.Config.Storage.LocalPath)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", c.Config.Storage.LocalPath)

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", c.Config.Storage.Mode)
	}
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	var backend jobx.Backend
	if c.Redis != nil {
		backend = jobxredis.New(c.Redis)
	} else {
		backend = jobxmemory.New()
	}
	c.Jobs = jobx.NewClient(backend, jobx.WithQueues("default"), jobx.WithConcurrency(2))

	c.Sessions = newSessionRegistry(c)

	// Queued OCR reruns carry their session id; dispatch them back to the
	// owning session's pipeline.
	c.Jobs.Register(docupload.ReprocessJobType, func(ctx context.Context, job *jobx.Record) error {
		var p docupload.ReprocessJob
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		session, ok := c.Sessions.Get(kernel.NewSessionID(p.SessionID))
		if !ok {
			logx.Warnf("jobx: session %s ended before reprocess of %s ran", p.SessionID, p.DocumentID)
			return nil
		}
		return session.ReprocessHandler()(ctx, job)
	})

	logx.Info("  ✅ Session registry and job handlers ready")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")
	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("Job worker stopped")
		}
	}()
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	c.Sessions.CloseAll()

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

// ---------------------------------------------------------------------------
// Session registry
// ---------------------------------------------------------------------------

// sessionRegistry tracks the live capture sessions by id.
type sessionRegistry struct {
	container *Container
	mu        sync.Mutex
	sessions  map[kernel.SessionID]*docstep.Session
}

func newSessionRegistry(c *Container) *sessionRegistry {
	return &sessionRegistry{container: c, sessions: make(map[kernel.SessionID]*docstep.Session)}
}

// Create builds and registers a session. An existing session with the same
// id is replaced after being closed.
func (r *sessionRegistry) Create(id kernel.SessionID, cfg docstep.Config) *docstep.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[id]; ok {
		old.Close()
	}
	session := docstep.NewSession(id, cfg,
		r.container.FileSystem,
		r.container.Remote,
		r.container.Jobs,
		docupload.WithStoragePrefix("sessions"),
		docupload.WithPreviewFactory(func(docID kernel.DocumentID, _ doccollect.SourceFile) doccollect.PreviewHandle {
			return &urlPreview{uri: fmt.Sprintf("/api/v1/sessions/%s/documents/%s/raw", id, docID)}
		}),
	)
	r.sessions[id] = session
	return session
}

// Get returns a live session.
func (r *sessionRegistry) Get(id kernel.SessionID) (*docstep.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// End closes and removes a session, releasing its preview handles.
func (r *sessionRegistry) End(id kernel.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Close()
	delete(r.sessions, id)
	return true
}

// CloseAll ends every session; called on shutdown.
func (r *sessionRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}

// Count returns the number of live sessions.
func (r *sessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// urlPreview points clients at the raw-document endpoint. The bytes live in
// the record itself, so there is nothing to free.
type urlPreview struct {
	uri string
}

func (p *urlPreview) URI() string { return p.uri }
func (p *urlPreview) Release()    {}
