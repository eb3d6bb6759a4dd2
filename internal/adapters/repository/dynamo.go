package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/metrics"
)

const dynamoDriver = "dynamodb"

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoConfig locates the two tables.
type DynamoConfig struct {
	Region       string
	Endpoint     string
	TasksTable   string
	WorkersTable string
}

// DynamoStore keeps tasks and workers in DynamoDB. Status changes are
// conditional writes on the status and assignee read beforehand, so a
// concurrent writer elsewhere surfaces as ErrConflict instead of a lost update.
type DynamoStore struct {
	db           DynamoAPI
	tasksTable   string
	workersTable string
	now          func() time.Time
	newID        func() string
}

var _ Store = (*DynamoStore)(nil)

type taskItem struct {
	TaskID         string `dynamodbav:"task_id"`
	Title          string `dynamodbav:"title"`
	Description    string `dynamodbav:"description"`
	Priority       string `dynamodbav:"priority"`
	Status         string `dynamodbav:"status"`
	AssignedTo     string `dynamodbav:"assigned_to"`
	EstimatedHours int    `dynamodbav:"estimated_hours"`
	DueDate        string `dynamodbav:"due_date"`
	CreatedDate    string `dynamodbav:"created_date"`
}

type workerItem struct {
	WorkerID   string  `dynamodbav:"worker_id"`
	Name       string  `dynamodbav:"name"`
	Department string  `dynamodbav:"department"`
	Position   string  `dynamodbav:"position"`
	Email      string  `dynamodbav:"email"`
	SkillLevel float64 `dynamodbav:"skill_level"`
}

// NewDynamoStore builds a client from the default AWS configuration chain.
func NewDynamoStore(ctx context.Context, cfg DynamoConfig) (*DynamoStore, error) {
	if cfg.TasksTable == "" || cfg.WorkersTable == "" {
		return nil, errors.New("dynamodb tasks and workers tables are required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamoStoreWithClient(client, cfg.TasksTable, cfg.WorkersTable), nil
}

// NewDynamoStoreWithClient wraps an existing client.
func NewDynamoStoreWithClient(db DynamoAPI, tasksTable, workersTable string) *DynamoStore {
	return &DynamoStore{
		db:           db,
		tasksTable:   tasksTable,
		workersTable: workersTable,
		now:          time.Now,
		newID:        defaultID,
	}
}

// Driver implements Store.
func (s *DynamoStore) Driver() string { return dynamoDriver }

// Close implements Store.
func (s *DynamoStore) Close() error { return nil }

func observeDynamo(op string, start time.Time) {
	metrics.RecordStoreLatency(dynamoDriver, op, float64(time.Since(start).Microseconds())/1000)
}

func toTaskItem(t model.Task) taskItem {
	return taskItem{
		TaskID:         t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		AssignedTo:     t.AssignedTo,
		EstimatedHours: t.EstimatedHours,
		DueDate:        t.DueDate.String(),
		CreatedDate:    t.CreatedDate.UTC().Format(time.RFC3339Nano),
	}
}

func (it taskItem) toTask() (model.Task, error) {
	t := model.Task{
		ID:             it.TaskID,
		Title:          it.Title,
		Description:    it.Description,
		Priority:       model.Priority(it.Priority),
		Status:         model.Status(it.Status),
		AssignedTo:     it.AssignedTo,
		EstimatedHours: it.EstimatedHours,
	}
	if it.DueDate != "" {
		d, err := model.ParseDate(it.DueDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s: %w", it.TaskID, err)
		}
		t.DueDate = d
	}
	if it.CreatedDate != "" {
		c, err := time.Parse(time.RFC3339Nano, it.CreatedDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s created_date: %w", it.TaskID, err)
		}
		t.CreatedDate = c
	}
	return t, nil
}

func decodeTask(av map[string]types.AttributeValue) (model.Task, error) {
	var it taskItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return model.Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	return it.toTask()
}

func taskKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"task_id": &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// ListWorkers implements Reader.
func (s *DynamoStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	defer observeDynamo("list_workers", time.Now())
	items, err := s.scanAll(ctx, s.workersTable)
	if err != nil {
		return nil, err
	}
	var rows []workerItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal workers: %w", err)
	}
	out := make([]model.Worker, len(rows))
	for i, r := range rows {
		out[i] = r.toWorker()
	}
	sortWorkers(out)
	return out, nil
}

// ListTasks implements Reader.
func (s *DynamoStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	defer observeDynamo("list_tasks", time.Now())
	items, err := s.scanAll(ctx, s.tasksTable)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(items))
	for _, av := range items {
		t, err := decodeTask(av)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	SortTasks(out)
	return out, nil
}

func (s *DynamoStore) scanAll(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	var (
		items []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: start,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		start = out.LastEvaluatedKey
	}
}

// GetTask implements Reader.
func (s *DynamoStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	defer observeDynamo("get_task", time.Now())
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tasksTable),
		Key:            taskKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	if out.Item == nil {
		return model.Task{}, taskNotFound(id)
	}
	return decodeTask(out.Item)
}

// GetWorker implements Reader.
func (s *DynamoStore) GetWorker(ctx context.Context, id string) (model.Worker, error) {
	defer observeDynamo("get_worker", time.Now())
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.workersTable),
		Key: map[string]types.AttributeValue{
			"worker_id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Worker{}, fmt.Errorf("get worker %s: %w", id, err)
	}
	if out.Item == nil {
		return model.Worker{}, workerNotFound(id)
	}
	var w workerItem
	if err := attributevalue.UnmarshalMap(out.Item, &w); err != nil {
		return model.Worker{}, fmt.Errorf("unmarshal worker: %w", err)
	}
	return w.toWorker(), nil
}

// CreateTask implements Writer.
func (s *DynamoStore) CreateTask(ctx context.Context, f model.TaskFields) (model.Task, error) {
	defer observeDynamo("create_task", time.Now())
	t := f.Apply(model.Task{
		ID:          s.newID(),
		Status:      model.StatusPending,
		CreatedDate: s.now().UTC(),
	})
	item, err := attributevalue.MarshalMap(toTaskItem(t))
	if err != nil {
		return model.Task{}, fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tasksTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(task_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return model.Task{}, fmt.Errorf("%w: task id %s already taken", ErrConflict, t.ID)
		}
		return model.Task{}, fmt.Errorf("put task: %w", err)
	}
	return t, nil
}

// UpdateTask implements Writer.
func (s *DynamoStore) UpdateTask(ctx context.Context, id string, f model.TaskFields) (model.Task, error) {
	defer observeDynamo("update_task", time.Now())
	out, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tasksTable),
		Key:                 taskKey(id),
		ConditionExpression: aws.String("attribute_exists(task_id)"),
		UpdateExpression: aws.String("SET title = :title, description = :desc, priority = :prio, " +
			"due_date = :due, estimated_hours = :hours"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":title": &types.AttributeValueMemberS{Value: f.Title},
			":desc":  &types.AttributeValueMemberS{Value: f.Description},
			":prio":  &types.AttributeValueMemberS{Value: string(f.Priority)},
			":due":   &types.AttributeValueMemberS{Value: f.DueDate.String()},
			":hours": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", f.EstimatedHours)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return model.Task{}, taskNotFound(id)
		}
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return decodeTask(out.Attributes)
}

// DeleteTask implements Writer.
func (s *DynamoStore) DeleteTask(ctx context.Context, id string) (model.Task, error) {
	defer observeDynamo("delete_task", time.Now())
	out, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tasksTable),
		Key:                 taskKey(id),
		ConditionExpression: aws.String("attribute_exists(task_id)"),
		ReturnValues:        types.ReturnValueAllOld,
	})
	if err != nil {
		if isConditionFailed(err) {
			return model.Task{}, taskNotFound(id)
		}
		return model.Task{}, fmt.Errorf("delete task %s: %w", id, err)
	}
	return decodeTask(out.Attributes)
}

// AssignTask implements Writer.
func (s *DynamoStore) AssignTask(ctx context.Context, taskID, workerID string) (model.TaskChange, error) {
	defer observeDynamo("assign_task", time.Now())
	before, err := s.GetTask(ctx, taskID)
	if err != nil {
		return model.TaskChange{}, err
	}
	if _, err := s.GetWorker(ctx, workerID); err != nil {
		return model.TaskChange{}, err
	}
	after, err := model.Assign(before, workerID)
	if err != nil {
		return model.TaskChange{}, err
	}
	if err := s.swapStatus(ctx, before, after); err != nil {
		return model.TaskChange{}, err
	}
	return model.TaskChange{Before: before, After: after}, nil
}

// SetTaskStatus implements Writer.
func (s *DynamoStore) SetTaskStatus(ctx context.Context, taskID string, to model.Status) (model.TaskChange, error) {
	defer observeDynamo("set_status", time.Now())
	before, err := s.GetTask(ctx, taskID)
	if err != nil {
		return model.TaskChange{}, err
	}
	after, err := model.Transition(before, to)
	if err != nil {
		return model.TaskChange{}, err
	}
	if err := s.swapStatus(ctx, before, after); err != nil {
		return model.TaskChange{}, err
	}
	return model.TaskChange{Before: before, After: after}, nil
}

// swapStatus writes after's status and assignee only if the row still holds before's.
func (s *DynamoStore) swapStatus(ctx context.Context, before, after model.Task) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tasksTable),
		Key:                 taskKey(before.ID),
		ConditionExpression: aws.String("#st = :from AND assigned_to = :prev"),
		UpdateExpression:    aws.String("SET #st = :to, assigned_to = :wid"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(before.Status)},
			":prev": &types.AttributeValueMemberS{Value: before.AssignedTo},
			":to":   &types.AttributeValueMemberS{Value: string(after.Status)},
			":wid":  &types.AttributeValueMemberS{Value: after.AssignedTo},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: task %s changed since it was read", ErrConflict, before.ID)
		}
		return fmt.Errorf("update task %s status: %w", before.ID, err)
	}
	return nil
}

// PutWorker implements Writer.
func (s *DynamoStore) PutWorker(ctx context.Context, w model.Worker) error {
	defer observeDynamo("put_worker", time.Now())
	if err := model.ValidateWorker(w); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(workerItem{
		WorkerID:   w.ID,
		Name:       w.Name,
		Department: w.Department,
		Position:   w.Position,
		Email:      w.Email,
		SkillLevel: w.SkillLevel,
	})
	if err != nil {
		return fmt.Errorf("marshal worker: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.workersTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put worker %s: %w", w.ID, err)
	}
	return nil
}

// PutTask implements Writer.
func (s *DynamoStore) PutTask(ctx context.Context, t model.Task) error {
	defer observeDynamo("put_task", time.Now())
	if err := validateImported(t); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(toTaskItem(t))
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tasksTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put task %s: %w", t.ID, err)
	}
	return nil
}

func (w workerItem) toWorker() model.Worker {
	return model.Worker{
		ID:         w.WorkerID,
		Name:       w.Name,
		Department: w.Department,
		Position:   w.Position,
		Email:      w.Email,
		SkillLevel: w.SkillLevel,
	}
}
