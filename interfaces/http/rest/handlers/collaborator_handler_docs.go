package handlers

// Generate builds a mind map from free text
// @Summary Generate a map
// @Description Asks the LLM collaborator for nodes and edges describing the text
// @Tags collaborator
// @Accept json
// @Produce json
// @Param request body api.GenerateRequest true "Text and detail level (1-5, default 3)"
// @Success 200 {object} ports.GeneratedMap "Generated nodes and edges"
// @Failure 400 {object} errors.ErrorResponse "Empty text or invalid detail level"
// @Failure 502 {object} errors.ErrorResponse "Collaborator failed or replied with the wrong schema"
// @Failure 503 {object} errors.ErrorResponse "Collaborator unavailable (circuit open)"
// @Router /generate [post]

// Suggest proposes child ideas for a node
// @Summary Suggest children
// @Tags collaborator
// @Accept json
// @Produce json
// @Param request body api.SuggestRequest true "Node label and detail level"
// @Success 200 {object} api.SuggestResponse "Suggested child labels"
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 502 {object} errors.ErrorResponse "Collaborator error"
// @Router /suggest [post]

// Insight analyses a map
// @Summary Map insight
// @Tags collaborator
// @Accept json
// @Produce json
// @Param request body api.InsightRequest true "Nodes, edges and optional summaries"
// @Success 200 {object} ports.Insight "Insight, blind spot and cluster summary"
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 502 {object} errors.ErrorResponse "Collaborator error"
// @Router /insight [post]

// Clusters groups a map's nodes by theme
// @Summary Semantic clusters
// @Tags collaborator
// @Accept json
// @Produce json
// @Param request body api.ClustersRequest true "Nodes and edges"
// @Success 200 {object} api.ClustersResponse "Named groups of node ids"
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 502 {object} errors.ErrorResponse "Collaborator error"
// @Router /clusters [post]
