package models

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus представляет статус пакетного задания обхода
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// IsTerminal сообщает, является ли статус конечным
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// CrawlJobType представляет тип пакетного задания
type CrawlJobType string

const (
	// CrawlJobTypeFullScan - полный обход каталога магазина
	CrawlJobTypeFullScan CrawlJobType = "FULL_SCAN"
	// CrawlJobTypeSingleURL - обход одного товара по ссылке
	CrawlJobTypeSingleURL CrawlJobType = "SINGLE_URL"
)

// ShopType представляет магазин, данные которого собираются
type ShopType string

const (
	ShopTypeMusinsa  ShopType = "MUSINSA"
	ShopTypeWConcept ShopType = "W_CONCEPT"
	ShopTypeEQL      ShopType = "EQL"
)

// jobTransitions - единственная таблица допустимых переходов статуса задания.
// Любой переход, которого здесь нет, отклоняется.
var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusPending: {JobStatusRunning: true},
	JobStatusRunning: {JobStatusSuccess: true, JobStatusFailed: true},
}

func jobCanTransit(from, to JobStatus) bool {
	return jobTransitions[from][to]
}

var (
	// ErrIllegalJobTransition возвращается при недопустимом переходе статуса задания
	ErrIllegalJobTransition = errors.New("crawl job: illegal status transition")

	// ErrJobCountersExceedTotal возвращается, когда инкремент счетчика нарушил бы
	// инвариант successCount + failCount <= totalCount
	ErrJobCountersExceedTotal = errors.New("crawl job: success + fail counters would exceed total")

	// ErrJobNotAccounted возвращается при попытке завершить задание до того,
	// как все отправленные на обход элементы были учтены
	ErrJobNotAccounted = errors.New("crawl job: not all items accounted for")

	// ErrJobTotalCountSealed возвращается при попытке изменить totalCount
	// после начала диспетчеризации элементов
	ErrJobTotalCountSealed = errors.New("crawl job: total count is immutable after dispatch")
)

// maxJobErrorMessageLen ограничивает длину сохраняемого сообщения об ошибке
const maxJobErrorMessageLen = 2000

// CrawlJob представляет одно пакетное задание обхода: пара (тип задания, магазин).
// Счетчики успехов и неудач обновляются конкурентно воркерами, обрабатывающими
// разные товары одного задания, поэтому все мутации сериализуются мьютексом.
// Неудача отдельного элемента не меняет статус задания - только счетчик.
type CrawlJob struct {
	mu sync.Mutex

	ID           string       `json:"id"`
	JobType      CrawlJobType `json:"job_type"`
	ShopType     ShopType     `json:"shop_type"`
	Status       JobStatus    `json:"status"`
	TotalCount   int          `json:"total_count"`
	SuccessCount int          `json:"success_count"`
	FailCount    int          `json:"fail_count"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewCrawlJob создает новое задание в статусе PENDING с нулевыми счетчиками
func NewCrawlJob(jobType CrawlJobType, shopType ShopType) *CrawlJob {
	return &CrawlJob{
		ID:        uuid.New().String(),
		JobType:   jobType,
		ShopType:  shopType,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// SetTotalCount фиксирует число элементов задания. Допустимо только до начала
// диспетчеризации: в PENDING, либо в RUNNING, пока ни один элемент не учтен
// и totalCount еще не был установлен.
func (j *CrawlJob) SetTotalCount(n int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if n < 0 {
		return ErrJobCountersExceedTotal
	}

	switch {
	case j.Status == JobStatusPending:
	case j.Status == JobStatusRunning && j.TotalCount == 0 && j.SuccessCount+j.FailCount == 0:
	default:
		return ErrJobTotalCountSealed
	}

	j.TotalCount = n
	return nil
}

// Start переводит задание в RUNNING и записывает время старта.
// Повторный вызов для уже запущенного задания - no-op.
func (j *CrawlJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status == JobStatusRunning {
		return nil
	}
	if !jobCanTransit(j.Status, JobStatusRunning) {
		return ErrIllegalJobTransition
	}

	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	return nil
}

// RecordItemSuccess учитывает успешный обход одного элемента.
// Безопасен для конкурентного вызова из нескольких воркеров.
func (j *CrawlJob) RecordItemSuccess() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != JobStatusRunning {
		return ErrIllegalJobTransition
	}
	if j.SuccessCount+j.FailCount+1 > j.TotalCount {
		return ErrJobCountersExceedTotal
	}

	j.SuccessCount++
	return nil
}

// RecordItemFailure учитывает неудачный обход одного элемента.
// Неудача элемента изолирована: статус задания не меняется.
func (j *CrawlJob) RecordItemFailure() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != JobStatusRunning {
		return ErrIllegalJobTransition
	}
	if j.SuccessCount+j.FailCount+1 > j.TotalCount {
		return ErrJobCountersExceedTotal
	}

	j.FailCount++
	return nil
}

// Complete переводит задание в SUCCESS. Допустимо только когда все элементы
// учтены (success + fail == total). Повторный вызов для успешного задания - no-op.
func (j *CrawlJob) Complete() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status == JobStatusSuccess {
		return nil
	}
	if !jobCanTransit(j.Status, JobStatusSuccess) {
		return ErrIllegalJobTransition
	}
	if j.SuccessCount+j.FailCount != j.TotalCount {
		return ErrJobNotAccounted
	}

	now := time.Now().UTC()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
	return nil
}

// Fail переводит задание в FAILED с сообщением об ошибке. Используется для
// неустранимых ошибок уровня задания (например, источник полностью недоступен).
// Повторный вызов для уже проваленного задания - no-op.
func (j *CrawlJob) Fail(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status == JobStatusFailed {
		return nil
	}
	if !jobCanTransit(j.Status, JobStatusFailed) {
		return ErrIllegalJobTransition
	}

	if len(message) > maxJobErrorMessageLen {
		message = message[:maxJobErrorMessageLen]
	}

	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
	return nil
}

// CurrentStatus возвращает статус задания под блокировкой
func (j *CrawlJob) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// Counts возвращает согласованный снимок счетчиков (total, success, fail)
func (j *CrawlJob) Counts() (int, int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.TotalCount, j.SuccessCount, j.FailCount
}
