package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/caiwilliamson/octopub/internal/dto"
	"github.com/caiwilliamson/octopub/internal/models"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/pkg/event_notifier"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// 仓库写入失败时的单条合成消息，不携带文件级细节
const msgPublishFailed = "Dataset could not be published to the repository host"

// Notifier 终态事件通知能力
type Notifier interface {
	Publish(ctx context.Context, channelID, event string, payload interface{}) error
}

// SchemaResolver schema解析能力
type SchemaResolver interface {
	ResolveSchema(ctx context.Context, schema *models.DatasetFileSchema) (*TableSchema, error)
}

// PublishManager 发布任务管理器
// 请求线程只入队，worker池异步执行发布状态机:
// Pending -> Validating -> (Failed | Writing) -> (Failed | Published)
type PublishManager struct {
	datasetRepo *repository.DatasetRepository
	userRepo    *repository.UserRepository
	jobRepo     *repository.JobRepository
	aggregator  *ErrorAggregator
	schemas     SchemaResolver
	publisher   *RepoPublisher
	jekyll      *JekyllService
	notifier    Notifier
	redisClient *redis.Client

	queue    chan *JobContext
	workerWG sync.WaitGroup

	// 内存中的任务状态
	jobs     map[string]*JobContext
	jobsLock sync.RWMutex
}

// JobContext 发布任务上下文
type JobContext struct {
	JobID     string
	DatasetID uint
	UserID    uint
	ChannelID string
	Status    string
	Messages  []string
	StartTime time.Time
	EndTime   *time.Time
	Finished  bool

	// 用于广播的事件历史和订阅者管理
	eventHistory     []*dto.JobEvent
	eventHistoryLock sync.RWMutex
	subscribers      map[chan *dto.JobEvent]bool
	subscribersLock  sync.RWMutex
}

// AddEvent 添加事件到历史并广播给所有订阅者
func (jc *JobContext) AddEvent(event *dto.JobEvent) {
	jc.eventHistoryLock.Lock()
	jc.eventHistory = append(jc.eventHistory, event)
	jc.eventHistoryLock.Unlock()

	jc.subscribersLock.RLock()
	for ch := range jc.subscribers {
		select {
		case ch <- event:
		default:
			// 通道满了，跳过（避免阻塞）
		}
	}
	jc.subscribersLock.RUnlock()
}

// Subscribe 订阅事件（返回一个接收事件的通道）
func (jc *JobContext) Subscribe() chan *dto.JobEvent {
	ch := make(chan *dto.JobEvent, 64)

	jc.subscribersLock.Lock()
	if jc.subscribers == nil {
		jc.subscribers = make(map[chan *dto.JobEvent]bool)
	}
	jc.subscribers[ch] = true
	jc.subscribersLock.Unlock()

	return ch
}

// Unsubscribe 取消订阅
func (jc *JobContext) Unsubscribe(ch chan *dto.JobEvent) {
	jc.subscribersLock.Lock()
	delete(jc.subscribers, ch)
	jc.subscribersLock.Unlock()
	// 注意：不关闭通道，SSE handler 通过 context.Done() 来检测断开连接
}

// GetEventHistory 获取事件历史的副本
func (jc *JobContext) GetEventHistory() []*dto.JobEvent {
	jc.eventHistoryLock.RLock()
	defer jc.eventHistoryLock.RUnlock()

	history := make([]*dto.JobEvent, len(jc.eventHistory))
	copy(history, jc.eventHistory)
	return history
}

// NewPublishManager 创建发布任务管理器
func NewPublishManager(
	datasetRepo *repository.DatasetRepository,
	userRepo *repository.UserRepository,
	jobRepo *repository.JobRepository,
	aggregator *ErrorAggregator,
	schemas SchemaResolver,
	publisher *RepoPublisher,
	jekyll *JekyllService,
	notifier Notifier,
	redisClient *redis.Client,
	queueSize int,
) *PublishManager {
	return &PublishManager{
		datasetRepo: datasetRepo,
		userRepo:    userRepo,
		jobRepo:     jobRepo,
		aggregator:  aggregator,
		schemas:     schemas,
		publisher:   publisher,
		jekyll:      jekyll,
		notifier:    notifier,
		redisClient: redisClient,
		queue:       make(chan *JobContext, queueSize),
		jobs:        make(map[string]*JobContext),
	}
}

// StartWorkers 启动发布worker池
func (pm *PublishManager) StartWorkers(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		pm.workerWG.Add(1)
		go func(id int) {
			defer pm.workerWG.Done()
			for jobCtx := range pm.queue {
				log.Printf("[PublishWorker %d] 开始执行任务: %s", id, jobCtx.JobID)
				pm.runJob(ctx, jobCtx)
			}
		}(i)
	}
}

// Stop 停止接收新任务并等待在途任务完成
func (pm *PublishManager) Stop() {
	close(pm.queue)
	pm.workerWG.Wait()
}

// EnqueuePublish 创建发布任务记录并入队
// 不阻塞等待校验或远程I/O，立即返回任务引用
func (pm *PublishManager) EnqueuePublish(datasetID uint, userID uint, channelID string) (*models.PublishJob, error) {
	job := &models.PublishJob{
		JobID:     uuid.NewString(),
		DatasetID: datasetID,
		UserID:    userID,
		ChannelID: channelID,
		Status:    models.JobStatusPending,
		StartedAt: time.Now(),
	}

	if err := pm.jobRepo.Create(job); err != nil {
		return nil, fmt.Errorf("创建发布任务记录失败: %w", err)
	}

	jobCtx := &JobContext{
		JobID:     job.JobID,
		DatasetID: datasetID,
		UserID:    userID,
		ChannelID: channelID,
		Status:    models.JobStatusPending,
		StartTime: job.StartedAt,
	}

	pm.jobsLock.Lock()
	pm.jobs[job.JobID] = jobCtx
	pm.jobsLock.Unlock()

	select {
	case pm.queue <- jobCtx:
	default:
		pm.finishJob(context.Background(), jobCtx, models.JobStatusFailed, []string{msgPublishFailed})
		return nil, errors.New("发布队列已满，请稍后重试")
	}

	return job, nil
}

// runJob 执行发布状态机
func (pm *PublishManager) runJob(ctx context.Context, jobCtx *JobContext) {
	pm.setStatus(ctx, jobCtx, models.JobStatusValidating)

	dataset, err := pm.datasetRepo.GetByID(jobCtx.DatasetID)
	if err != nil {
		log.Printf("[PublishJob] 加载数据集失败: job=%s err=%v", jobCtx.JobID, err)
		pm.failPublish(ctx, jobCtx, nil)
		return
	}

	user, err := pm.userRepo.GetByID(jobCtx.UserID)
	if err != nil {
		log.Printf("[PublishJob] 加载用户失败: job=%s err=%v", jobCtx.JobID, err)
		pm.failPublish(ctx, jobCtx, dataset)
		return
	}

	files, err := pm.datasetRepo.GetFilesByDatasetID(dataset.ID)
	if err != nil {
		log.Printf("[PublishJob] 加载文件失败: job=%s err=%v", jobCtx.JobID, err)
		pm.failPublish(ctx, jobCtx, dataset)
		return
	}

	// 文件间校验相互独立，可并行；聚合前等待全部完成
	results := pm.validateFiles(ctx, jobCtx, files)

	if messages := AggregateViolations(results); messages != nil {
		pm.failValidation(ctx, jobCtx, dataset, messages)
		return
	}

	pm.setStatus(ctx, jobCtx, models.JobStatusWriting)

	if err := pm.writeToRepo(ctx, jobCtx, dataset, user, files); err != nil {
		log.Printf("[PublishJob] 仓库写入失败: job=%s err=%v", jobCtx.JobID, err)
		pm.failPublish(ctx, jobCtx, dataset)
		return
	}

	pm.markPublished(ctx, jobCtx, dataset)
}

// validateFiles 并行校验全部文件
// 无schema引用的文件视为自动有效；schema来源不可达按该文件的校验失败处理
func (pm *PublishManager) validateFiles(ctx context.Context, jobCtx *JobContext, files []models.DatasetFile) []FileValidation {
	results := make([]FileValidation, len(files))

	var wg sync.WaitGroup
	for i := range files {
		file := &files[i]
		results[i].Title = file.Title

		if !file.HasSchema() || file.DatasetFileSchema == nil {
			continue
		}

		wg.Add(1)
		go func(ix int, file *models.DatasetFile) {
			defer wg.Done()

			schema, err := pm.schemas.ResolveSchema(ctx, file.DatasetFileSchema)
			if err != nil {
				log.Printf("[PublishJob] 解析schema失败: job=%s file=%s err=%v", jobCtx.JobID, file.Title, err)
				results[ix].Violations = []string{fmt.Sprintf("%s: could not retrieve schema", file.Title)}
				return
			}

			results[ix].Violations = ValidateFile(file.Title, file.FileContent, schema)
		}(i, file)
	}
	wg.Wait()

	for _, r := range results {
		for _, v := range r.Violations {
			jobCtx.AddEvent(&dto.JobEvent{Type: "violation", Message: v})
		}
	}

	return results
}

// writeToRepo 解析目标仓库并写入全部文件
// 写入按(路径,内容)幂等，崩溃后的重试会覆盖同一路径
func (pm *PublishManager) writeToRepo(ctx context.Context, jobCtx *JobContext, dataset *models.Dataset, user *models.User, files []models.DatasetFile) error {
	handle, err := pm.publisher.Resolve(ctx, dataset.RepoOwner, dataset.RepoName, dataset.Restricted, user.RepoToken)
	if err != nil {
		return err
	}

	for i := range files {
		pm.publisher.Write(handle, files[i].TargetPath, files[i].FileContent)
	}

	extras, err := pm.jekyll.GenerateExtraFiles(dataset, files)
	if err != nil {
		return err
	}
	for _, extra := range extras {
		pm.publisher.Write(handle, extra.Path, extra.Content)
	}

	return pm.publisher.Commit(ctx, handle)
}

// failValidation 校验失败终态
// 持久化失败报告，数据集保持非published状态，推送失败事件
func (pm *PublishManager) failValidation(ctx context.Context, jobCtx *JobContext, dataset *models.Dataset, messages []string) {
	if _, err := pm.aggregator.PersistReport(jobCtx.JobID, &dataset.ID, messages); err != nil {
		log.Printf("[PublishJob] 持久化失败报告失败: job=%s err=%v", jobCtx.JobID, err)
	}

	if err := pm.datasetRepo.UpdateStatus(dataset.ID, models.DatasetStatusFailed); err != nil {
		log.Printf("[PublishJob] 更新数据集状态失败: job=%s err=%v", jobCtx.JobID, err)
	}

	pm.finishJob(ctx, jobCtx, models.JobStatusFailed, messages)
	pm.notify(ctx, jobCtx, event_notifier.EventDatasetFailed, messages)
}

// failPublish 仓库写入失败终态
// 报告为单条合成消息，不携带schema违规细节
func (pm *PublishManager) failPublish(ctx context.Context, jobCtx *JobContext, dataset *models.Dataset) {
	messages := []string{msgPublishFailed}

	var datasetID *uint
	if dataset != nil {
		datasetID = &dataset.ID
		if err := pm.datasetRepo.UpdateStatus(dataset.ID, models.DatasetStatusFailed); err != nil {
			log.Printf("[PublishJob] 更新数据集状态失败: job=%s err=%v", jobCtx.JobID, err)
		}
	}

	if _, err := pm.aggregator.PersistReport(jobCtx.JobID, datasetID, messages); err != nil {
		log.Printf("[PublishJob] 持久化失败报告失败: job=%s err=%v", jobCtx.JobID, err)
	}

	pm.finishJob(ctx, jobCtx, models.JobStatusFailed, messages)
	pm.notify(ctx, jobCtx, event_notifier.EventDatasetFailed, messages)
}

// markPublished 发布成功终态
func (pm *PublishManager) markPublished(ctx context.Context, jobCtx *JobContext, dataset *models.Dataset) {
	if err := pm.datasetRepo.UpdateStatus(dataset.ID, models.DatasetStatusPublished); err != nil {
		log.Printf("[PublishJob] 更新数据集状态失败: job=%s err=%v", jobCtx.JobID, err)
	}

	pm.finishJob(ctx, jobCtx, models.JobStatusPublished, nil)
	pm.notify(ctx, jobCtx, event_notifier.EventDatasetCreated, map[string]interface{}{
		"dataset_id": dataset.ID,
		"name":       dataset.Name,
		"repo_owner": dataset.RepoOwner,
		"repo_name":  dataset.RepoName,
	})

	log.Printf("[PublishJob] 任务 %s 发布成功", jobCtx.JobID)
}

// setStatus 更新任务状态并广播状态事件
func (pm *PublishManager) setStatus(ctx context.Context, jobCtx *JobContext, status string) {
	jobCtx.Status = status
	if err := pm.jobRepo.UpdateStatus(jobCtx.JobID, status); err != nil {
		log.Printf("[PublishJob] 更新任务状态失败: job=%s err=%v", jobCtx.JobID, err)
	}

	jobCtx.AddEvent(&dto.JobEvent{Type: "status", Status: status})
	pm.mirrorProgress(ctx, jobCtx)
}

// finishJob 将任务置为终态
// Failed与Published均为终态，任务不自行重试；重新提交产生新任务
func (pm *PublishManager) finishJob(ctx context.Context, jobCtx *JobContext, status string, messages []string) {
	now := time.Now()
	jobCtx.Status = status
	jobCtx.Messages = messages
	jobCtx.Finished = true
	jobCtx.EndTime = &now

	if err := pm.jobRepo.UpdateStatusWithMessages(jobCtx.JobID, status, messages); err != nil {
		log.Printf("[PublishJob] 更新任务终态失败: job=%s err=%v", jobCtx.JobID, err)
	}

	jobCtx.AddEvent(&dto.JobEvent{Type: "finished", Status: status, Messages: messages})
	pm.mirrorProgress(ctx, jobCtx)
}

// notify 推送终态事件，尽力而为
func (pm *PublishManager) notify(ctx context.Context, jobCtx *JobContext, event string, payload interface{}) {
	if pm.notifier == nil {
		return
	}
	if err := pm.notifier.Publish(ctx, jobCtx.ChannelID, event, payload); err != nil {
		log.Printf("[PublishJob] 推送通知失败: job=%s event=%s err=%v", jobCtx.JobID, event, err)
	}
}

// mirrorProgress 将任务进度镜像到Redis，供跨进程查询
func (pm *PublishManager) mirrorProgress(ctx context.Context, jobCtx *JobContext) {
	if pm.redisClient == nil {
		return
	}

	redisKey := "publish_progress:" + jobCtx.JobID
	pipe := pm.redisClient.Pipeline()
	pipe.HSet(ctx, redisKey, "status", jobCtx.Status)
	pipe.HSet(ctx, redisKey, "dataset_id", jobCtx.DatasetID)
	pipe.Expire(ctx, redisKey, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[PublishJob] 镜像进度到Redis失败: job=%s err=%v", jobCtx.JobID, err)
	}
}

// GetJob 获取内存中的任务上下文
func (pm *PublishManager) GetJob(jobID string) (*JobContext, bool) {
	pm.jobsLock.RLock()
	defer pm.jobsLock.RUnlock()
	jobCtx, exists := pm.jobs[jobID]
	return jobCtx, exists
}

// GetJobRecord 获取任务的持久化记录
func (pm *PublishManager) GetJobRecord(jobID string) (*models.PublishJob, error) {
	return pm.jobRepo.GetByJobID(jobID)
}

// GetProgress 订阅任务进度（为每个订阅者创建独立的通道）
func (pm *PublishManager) GetProgress(jobID string) (<-chan *dto.JobEvent, []*dto.JobEvent, func(), error) {
	pm.jobsLock.RLock()
	jobCtx, exists := pm.jobs[jobID]
	pm.jobsLock.RUnlock()

	if !exists {
		return nil, nil, nil, errors.New("任务不存在")
	}

	subscriberChan := jobCtx.Subscribe()
	history := jobCtx.GetEventHistory()

	unsubscribe := func() {
		jobCtx.Unsubscribe(subscriberChan)
	}

	return subscriberChan, history, unsubscribe, nil
}
