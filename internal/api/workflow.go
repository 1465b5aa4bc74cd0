package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/dvc-uploads/internal/types"
)

// WorkflowClient is the part of client.Client the handlers use.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
}

type WorkflowHandler struct {
	temporalClient WorkflowClient
	taskQueue      string
}

func NewWorkflowHandler(temporalClient WorkflowClient, taskQueue string) *WorkflowHandler {
	return &WorkflowHandler{temporalClient: temporalClient, taskQueue: taskQueue}
}

// Register mounts the upload routes on r.
func (h *WorkflowHandler) Register(r gin.IRouter) {
	r.POST("/uploads", h.StartUploadWorkflow)
	r.GET("/uploads/:id/status", h.GetUploadStatus)
}

type StartWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// StartUploadWorkflow starts UploadWorkflow for the sources in the request body.
func (h *WorkflowHandler) StartUploadWorkflow(c *gin.Context) {
	var params types.UploadParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options := client.StartWorkflowOptions{TaskQueue: h.taskQueue}
	run, err := h.temporalClient.ExecuteWorkflow(c.Request.Context(), options, "UploadWorkflow", params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start workflow: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, StartWorkflowResponse{WorkflowID: run.GetID(), RunID: run.GetRunID()})
}

// GetUploadStatus reports the execution status, plus the summary once the
// workflow has completed.
func (h *WorkflowHandler) GetUploadStatus(c *gin.Context) {
	workflowID := c.Param("id")
	ctx := c.Request.Context()

	describe, err := h.temporalClient.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to describe workflow: " + err.Error()})
		return
	}
	info := describe.GetWorkflowExecutionInfo()
	status := info.GetStatus()
	resp := gin.H{
		"workflow_id": workflowID,
		"status":      status.String(),
		"start_time":  info.GetStartTime().AsTime(),
	}

	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var summary types.UploadSummary
		if err := h.temporalClient.GetWorkflow(ctx, workflowID, "").Get(ctx, &summary); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read result: " + err.Error()})
			return
		}
		resp["result"] = summary
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		if err := h.temporalClient.GetWorkflow(ctx, workflowID, "").Get(ctx, nil); err != nil {
			resp["error"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}
