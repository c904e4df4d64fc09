package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/radz2291/RZ-Property/internal/config"
	"github.com/radz2291/RZ-Property/internal/email"
	"github.com/radz2291/RZ-Property/internal/repository"
	"github.com/radz2291/RZ-Property/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeInquiryNotification = "inquiry:notify"
	TypeBlobDelete          = "blob:delete"
	TypeImageNormalize      = "image:normalize"
)

// Queues.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
)

// --- Payloads ---

// InquiryNotificationPayload carries everything the notification email shows,
// so the worker does not depend on the inquiry still existing.
type InquiryNotificationPayload struct {
	InquiryID     string    `json:"inquiry_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone"`
	Message       string    `json:"message"`
	Source        string    `json:"source"`
	PropertyTitle string    `json:"property_title,omitempty"`
	PropertySlug  string    `json:"property_slug,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BlobDeletePayload names a blob whose deletion failed on the request path.
type BlobDeletePayload struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// ImageNormalizePayload names a freshly uploaded image.
type ImageNormalizePayload struct {
	Key        string `json:"key"`
	PropertyID string `json:"property_id,omitempty"`
}

// --- Task Client (Enqueuing tasks) ---

// IEnqueuer schedules background work. Services depend on this, not on asynq.
type IEnqueuer interface {
	EnqueueInquiryNotification(ctx context.Context, payload InquiryNotificationPayload) error
	EnqueueBlobDelete(ctx context.Context, payload BlobDeletePayload) error
	EnqueueImageNormalize(ctx context.Context, payload ImageNormalizePayload) error
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient returns an asynq client on the same Redis as rdb.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

type asynqEnqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) IEnqueuer {
	return &asynqEnqueuer{client: client}
}

func (e *asynqEnqueuer) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	opts = append(opts, asynq.TaskID(uuid.NewString()))
	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	log.Printf("Enqueued task %s id=%s queue=%s", taskType, info.ID, info.Queue)
	return nil
}

func (e *asynqEnqueuer) EnqueueInquiryNotification(ctx context.Context, payload InquiryNotificationPayload) error {
	return e.enqueue(ctx, TypeInquiryNotification, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(10))
}

func (e *asynqEnqueuer) EnqueueBlobDelete(ctx context.Context, payload BlobDeletePayload) error {
	return e.enqueue(ctx, TypeBlobDelete, payload,
		asynq.Queue(QueueDefault), asynq.MaxRetry(20), asynq.ProcessIn(time.Minute))
}

func (e *asynqEnqueuer) EnqueueImageNormalize(ctx context.Context, payload ImageNormalizePayload) error {
	return e.enqueue(ctx, TypeImageNormalize, payload, asynq.Queue(QueueImages), asynq.MaxRetry(5))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	blobStore   storage.IBlobStore
	agents      repository.IAgentRepository
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	blobStore storage.IBlobStore,
	agents repository.IAgentRepository,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		blobStore:   blobStore,
		agents:      agents,
	}
}

// SetupServer configures the asynq server and its handlers for the worker
// roles requested. It returns nil when neither role is requested. The caller
// starts it with Start and stops it with Shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()

	if isBgWorker {
		queues[QueueCritical] = 6
		queues[QueueDefault] = 3
		mux.HandleFunc(TypeInquiryNotification, processor.HandleInquiryNotificationTask)
		mux.HandleFunc(TypeBlobDelete, processor.HandleBlobDeleteTask)
		log.Println("Registered background task handlers.")
	}
	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageNormalize, processor.HandleImageNormalizeTask)
		log.Println("Registered image processing task handlers.")
	}

	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Queues: queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)
	return srv, mux
}
