// Package queue holds the in-memory training-run queue and the runner that
// drains it. Training is CPU- and disk-heavy, so runs are executed one at a
// time in submission order, higher priorities first.
package queue

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/versich-treue/vtml-go/pkg/models"
)

// ErrTaskNotFound is returned when no task matches a lookup.
var ErrTaskNotFound = errors.New("training task not found")

// Queue is an in-memory priority queue of training tasks. Tasks stay in the
// map after dequeue so their status remains queryable for the lifetime of
// the process.
type Queue struct {
	mu     sync.RWMutex
	pq     *priorityQueue
	tasks  map[string]*models.TrainTask
	seq    int64
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	pq := make(priorityQueue, 0)
	heap.Init(&pq)

	return &Queue{
		pq:     &pq,
		tasks:  make(map[string]*models.TrainTask),
		notify: make(chan struct{}, 1),
	}
}

// Submit enqueues a new training request and returns its task. Higher
// priority dequeues first; equal priorities dequeue in submission order.
func (q *Queue) Submit(trigger string, priority int) *models.TrainTask {
	if priority < 0 {
		priority = 0
	}
	task := &models.TrainTask{
		ID:         uuid.New().String(),
		Trigger:    trigger,
		Priority:   priority,
		Status:     models.TaskStatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.seq++
	// Lower score dequeues first: dividing the clock by the priority ranks
	// urgent tasks ahead while keeping age order within a priority.
	score := float64(task.EnqueuedAt.UnixNano()) / float64(priority+1)
	heap.Push(q.pq, &queueItem{taskID: task.ID, score: score, seq: q.seq})
	q.tasks[task.ID] = task
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return snapshot(task)
}

// dequeue removes and returns the next task, or nil when the queue is
// empty.
func (q *Queue) dequeue() (*models.TrainTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pq.Len() == 0 {
		return nil, nil
	}
	item := heap.Pop(q.pq).(*queueItem)
	task, ok := q.tasks[item.taskID]
	if !ok {
		return nil, fmt.Errorf("task data not found: %s", item.taskID)
	}
	return task, nil
}

// Get returns a copy of the task with the given ID.
func (q *Queue) Get(taskID string) (*models.TrainTask, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return snapshot(task), nil
}

// setStatus moves a task through its lifecycle and stamps the transition.
func (q *Queue) setStatus(taskID string, status models.TaskStatus, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task.Status = status
	if errorMsg != "" {
		task.Error = errorMsg
	}

	now := time.Now().UTC()
	switch status {
	case models.TaskStatusRunning:
		task.StartedAt = &now
	case models.TaskStatusCompleted, models.TaskStatusFailed:
		task.CompletedAt = &now
	}
	return nil
}

// attachRun links a task to the pipeline run it produced.
func (q *Queue) attachRun(taskID, runID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	task.RunID = runID
	return nil
}

// Len returns the number of tasks waiting to be dequeued.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.pq.Len()
}

// ready signals task arrival. The channel is buffered, so a wakeup covers
// every task submitted before the receiver drains the queue.
func (q *Queue) ready() <-chan struct{} {
	return q.notify
}

// Close releases queue resources. In-memory, so nothing to do.
func (q *Queue) Close() error {
	return nil
}

func snapshot(task *models.TrainTask) *models.TrainTask {
	copied := *task
	return &copied
}

// queueItem orders tasks in the heap.
type queueItem struct {
	taskID string
	score  float64
	seq    int64
	index  int
}

// priorityQueue implements heap.Interface over queue items.
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].score != pq[j].score {
		return pq[i].score < pq[j].score
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}
