// Package camundatest provides an in-memory JobClient that records the
// commands a worker sends back to the broker.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway records job commands. Unimplemented gateway calls panic.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	Completed []*pb.CompleteJobRequest
	Failed    []*pb.FailJobRequest
	Thrown    []*pb.ThrowErrorRequest
}

func (g *Gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Completed = append(g.Completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *Gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Failed = append(g.Failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *Gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Thrown = append(g.Thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

// JobClient implements worker.JobClient on top of a recording Gateway.
type JobClient struct {
	Gateway *Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, noRetry)
}

// CompletedVariables decodes the variables of the only completed job, or
// returns nil when no job or more than one job was completed.
func (c *JobClient) CompletedVariables() map[string]interface{} {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	if len(c.Gateway.Completed) != 1 {
		return nil
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(c.Gateway.Completed[0].Variables), &vars); err != nil {
		return nil
	}
	return vars
}

// NewJob builds an activated job carrying variables.
func NewJob(key int64, taskType string, variables map[string]interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               taskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "ghostjob-screening",
		ElementId:          "Activity_" + taskType,
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(raw),
	}}
}
