package controller

import (
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// contentFilter 解析 level / day，非法时已写入 400
func contentFilter(ctx *gin.Context) (repository.ContentFilter, bool) {
	level, ok := util.QueryInt(ctx, "level", 0)
	if !ok {
		return repository.ContentFilter{}, false
	}
	day, ok := util.QueryInt(ctx, "day", 0)
	if !ok {
		return repository.ContentFilter{}, false
	}
	return repository.ContentFilter{Level: level, Day: day}, true
}

// GetWords godoc
// @Summary List words
// @Description List the word catalog, optionally filtered by level and day
// @Tags content
// @Produce  json
// @Security ApiKeyAuth
// @Param   level query int false "Level"
// @Param   day query int false "Day"
// @Success 200 {object} util.Response{data=[]model.Word} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /api/words [get]
func (c *ContentController) GetWords(ctx *gin.Context) {
	filter, ok := contentFilter(ctx)
	if !ok {
		return
	}
	words, err := c.ContentService.ListWords(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, words)
}

// GetSentences godoc
// @Summary List sentences
// @Description List the sentence catalog, optionally filtered by level and day
// @Tags content
// @Produce  json
// @Security ApiKeyAuth
// @Param   level query int false "Level"
// @Param   day query int false "Day"
// @Success 200 {object} util.Response{data=[]model.Sentence} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/sentences [get]
func (c *ContentController) GetSentences(ctx *gin.Context) {
	filter, ok := contentFilter(ctx)
	if !ok {
		return
	}
	sentences, err := c.ContentService.ListSentences(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sentences)
}

// CreateWord godoc
// @Summary Create a word (Admin only)
// @Tags content
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.WordInput true "Word"
// @Success 201 {object} util.Response{data=model.Word} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/admin/words [post]
func (c *ContentController) CreateWord(ctx *gin.Context) {
	var req service.WordInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	word, err := c.ContentService.CreateWord(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, word)
}

// UpdateWord godoc
// @Summary Update a word (Admin only)
// @Tags content
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Word ID"
// @Param   body body service.WordInput true "Word"
// @Success 200 {object} util.Response{data=model.Word} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/admin/words/{id} [put]
func (c *ContentController) UpdateWord(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	var req service.WordInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	word, err := c.ContentService.UpdateWord(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, word)
}

// DeleteWord godoc
// @Summary Delete a word (Admin only)
// @Tags content
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Word ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/admin/words/{id} [delete]
func (c *ContentController) DeleteWord(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	if err := c.ContentService.DeleteWord(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateSentence godoc
// @Summary Create a sentence (Admin only)
// @Tags content
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SentenceInput true "Sentence"
// @Success 201 {object} util.Response{data=model.Sentence} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/admin/sentences [post]
func (c *ContentController) CreateSentence(ctx *gin.Context) {
	var req service.SentenceInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sentence, err := c.ContentService.CreateSentence(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sentence)
}

// UpdateSentence godoc
// @Summary Update a sentence (Admin only)
// @Tags content
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Sentence ID"
// @Param   body body service.SentenceInput true "Sentence"
// @Success 200 {object} util.Response{data=model.Sentence} "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/admin/sentences/{id} [put]
func (c *ContentController) UpdateSentence(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	var req service.SentenceInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sentence, err := c.ContentService.UpdateSentence(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sentence)
}

// DeleteSentence godoc
// @Summary Delete a sentence (Admin only)
// @Tags content
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Sentence ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/admin/sentences/{id} [delete]
func (c *ContentController) DeleteSentence(ctx *gin.Context) {
	id, ok := util.ParamUint(ctx, "id")
	if !ok {
		return
	}

	if err := c.ContentService.DeleteSentence(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ImportContent godoc
// @Summary Bulk import words or sentences (Admin only)
// @Description Columns: text, translation, level, day, reading (words only). A header row is skipped.
// @Tags content
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   kind formData string true "Content kind" Enums(word, sentence)
// @Param   file formData file true ".xlsx or .csv file"
// @Success 200 {object} util.Response{data=service.ImportResult} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/admin/content/import [post]
func (c *ContentController) ImportContent(ctx *gin.Context) {
	kind := model.ItemKind(ctx.PostForm("kind"))

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	result, err := c.ContentService.Import(ctx.Request.Context(), kind, header.Filename, file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
