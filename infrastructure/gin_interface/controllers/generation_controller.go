package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/infrastructure/gin_interface/dto"
	"github.com/Lerfilm/opendrama-sub004/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GenerationController interface {
	GenerateEpisode(c *gin.Context)
	GenerateScript(c *gin.Context)
	ListSegments(c *gin.Context)
	CheckSegment(c *gin.Context)
	PreviewImage(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type generationController struct {
	logger     outbound.LoggerPort
	runner     inbound.ChainRunnerPort
	dispatcher inbound.ChainDispatcherPort
	checker    inbound.SegmentStatusCheckerPort
	segments   outbound.SegmentStorePort
	ledger     inbound.TokenLedgerPort
	anchors    inbound.AnchorGeneratorPort
	conf       *config.ChainConfig
}

func NewGenerationController(logger outbound.LoggerPort, runner inbound.ChainRunnerPort,
	dispatcher inbound.ChainDispatcherPort, checker inbound.SegmentStatusCheckerPort,
	segments outbound.SegmentStorePort, ledger inbound.TokenLedgerPort,
	anchors inbound.AnchorGeneratorPort, conf *config.ChainConfig) GenerationController {
	return &generationController{
		logger:     logger,
		runner:     runner,
		dispatcher: dispatcher,
		checker:    checker,
		segments:   segments,
		ledger:     ledger,
		anchors:    anchors,
		conf:       conf,
	}
}

func (g *generationController) GenerateEpisode(c *gin.Context) {
	scriptID := c.Param("scriptId")
	episodeNum, err := strconv.Atoi(c.Param("episodeNum"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "episodeNum must be an integer"})
		return
	}

	result, err := g.runner.RunChain(c.Request.Context(), inbound.RunChainParams{
		ScriptID:   scriptID,
		EpisodeNum: episodeNum,
		UserID:     c.GetString(middleware.ContextUserIDKey),
	})
	if err != nil {
		g.logger.Error(err, "chain run failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toEpisodeResponse(scriptID, episodeNum, result))
}

func (g *generationController) GenerateScript(c *gin.Context) {
	scriptID := c.Param("scriptId")

	var req dto.GenerateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := g.dispatcher.RunEpisodes(c.Request.Context(), inbound.DispatchParams{
		ScriptID:    scriptID,
		EpisodeNums: req.EpisodeNums,
		UserID:      c.GetString(middleware.ContextUserIDKey),
	})
	if err != nil {
		g.logger.Error(err, "script dispatch failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]dto.GenerateEpisodeResponse, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			responses = append(responses, dto.GenerateEpisodeResponse{
				ScriptID:   scriptID,
				EpisodeNum: res.EpisodeNum,
				Aborted:    true,
				Reason:     res.Err.Error(),
			})
			continue
		}
		responses = append(responses, toEpisodeResponse(scriptID, res.EpisodeNum, res.Result))
	}
	c.JSON(http.StatusOK, responses)
}

func (g *generationController) ListSegments(c *gin.Context) {
	scriptID := c.Param("scriptId")
	episodeNum, err := strconv.Atoi(c.Param("episodeNum"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "episodeNum must be an integer"})
		return
	}

	segments, err := g.segments.ListByEpisode(c.Request.Context(), scriptID, episodeNum, nil)
	if err != nil {
		g.logger.Error(err, "failed to list segments")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]dto.SegmentResponse, 0, len(segments))
	for _, seg := range segments {
		responses = append(responses, dto.SegmentResponse{
			SegmentID:    seg.ID,
			SceneNum:     seg.SceneNum,
			SegmentIndex: seg.SegmentIndex,
			Status:       string(seg.Status),
			VideoURL:     seg.VideoURL,
			SeedImageURL: seg.SeedImageURL,
			ErrorMessage: seg.ErrorMessage,
			TokenCost:    seg.TokenCost,
		})
	}
	c.JSON(http.StatusOK, responses)
}

func (g *generationController) CheckSegment(c *gin.Context) {
	segmentID := c.Param("segmentId")

	result, err := g.checker.CheckSegment(c.Request.Context(), segmentID)
	if err != nil {
		g.logger.Error(err, "segment status check failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CheckSegmentResponse{
		SegmentID: segmentID,
		Status:    string(result.Status),
		VideoURL:  result.VideoURL,
		Error:     result.Error,
	})
}

func (g *generationController) PreviewImage(c *gin.Context) {
	var req dto.PreviewImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)
	cost := g.conf.PreviewTokenCost

	charged, err := g.ledger.DirectDeduction(c.Request.Context(), userID, cost, inbound.OperationMeta{
		Ref:         "preview-" + uuid.NewString(),
		Description: "instant image preview",
	})
	if err != nil {
		g.logger.Error(err, "preview deduction failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !charged {
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "insufficient token balance"})
		return
	}

	anchorCtx, cancel := context.WithTimeout(c.Request.Context(), g.conf.AnchorTimeout)
	defer cancel()

	url, err := g.anchors.Generate(anchorCtx, inbound.GenerateAnchorParams{Prompt: req.Prompt})
	if err != nil {
		g.logger.Error(err, "preview generation failed")
		// Undelivered work never stays charged.
		creditErr := g.ledger.AddTokens(c.Request.Context(), userID, cost, "bonus", inbound.OperationMeta{
			Description: "refund for failed image preview",
		})
		if creditErr != nil {
			g.logger.Error(creditErr, "failed to credit back preview charge")
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.PreviewImageResponse{
		ImageURL:   url,
		TokensUsed: cost,
	})
}

func (g *generationController) RegisterRoutes(r *gin.Engine) {
	r.POST("/scripts/:scriptId/episodes/:episodeNum/generate", g.GenerateEpisode)
	r.POST("/scripts/:scriptId/generate", g.GenerateScript)
	r.GET("/scripts/:scriptId/episodes/:episodeNum/segments", g.ListSegments)
	r.POST("/segments/:segmentId/check", g.CheckSegment)
	r.POST("/images/preview", g.PreviewImage)
}

func toEpisodeResponse(scriptID string, episodeNum int, result *inbound.ChainResult) dto.GenerateEpisodeResponse {
	return dto.GenerateEpisodeResponse{
		ScriptID:   scriptID,
		EpisodeNum: episodeNum,
		Total:      result.Total,
		Completed:  result.Completed,
		Failed:     result.Failed,
		Aborted:    result.Aborted,
		Reason:     result.Reason,
	}
}
