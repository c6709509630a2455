package handlers

// ListMaps lists saved maps
// @Summary List saved maps
// @Description Valid maps only, newest first. Corrupt entries are skipped.
// @Tags maps
// @Produce json
// @Success 200 {object} api.MapListResponse "Saved map summaries"
// @Failure 500 {object} errors.ErrorResponse "Storage error"
// @Router /maps [get]

// GetMap returns one saved map
// @Summary Get a saved map
// @Tags maps
// @Produce json
// @Param name path string true "Map name (URL-escaped)"
// @Success 200 {object} savedmaps.SavedMap "The map"
// @Failure 404 {object} errors.ErrorResponse "Missing or corrupt map"
// @Router /maps/{name} [get]

// SaveMap stores a map under a name
// @Summary Save a map
// @Description Overwrites any map with the same name and keeps its createdAt. Provisional items, duplicate ids and pairs, and dangling edges are dropped.
// @Tags maps
// @Accept json
// @Produce json
// @Param name path string true "Map name"
// @Param request body api.SaveMapRequest true "Nodes and edges"
// @Success 200 {object} savedmaps.SavedMap "The stored map"
// @Failure 400 {object} errors.ErrorResponse "Invalid name or body"
// @Router /maps/{name} [put]

// DeleteMap removes a saved map
// @Summary Delete a map
// @Tags maps
// @Param name path string true "Map name"
// @Success 204 "Deleted, or already absent"
// @Router /maps/{name} [delete]

// RenameMap moves a saved map to a new name
// @Summary Rename a map
// @Description An existing map with the new name is overwritten.
// @Tags maps
// @Accept json
// @Produce json
// @Param name path string true "Current name"
// @Param request body api.RenameMapRequest true "New name"
// @Success 200 {object} savedmaps.SavedMap "The renamed map"
// @Failure 400 {object} errors.ErrorResponse "Invalid new name"
// @Failure 404 {object} errors.ErrorResponse "Map not found"
// @Router /maps/{name}/rename [post]

// CleanupMaps removes corrupt entries
// @Summary Remove invalid maps
// @Tags maps
// @Produce json
// @Success 200 {object} api.CleanupResponse "Names removed"
// @Router /maps/cleanup [post]

// ExportMap downloads a map file
// @Summary Export a map
// @Tags maps
// @Produce json,xml
// @Param name path string true "Map name"
// @Param format query string false "json (default) or xml"
// @Success 200 {file} file "Map file"
// @Failure 400 {object} errors.ErrorResponse "Unsupported format"
// @Failure 404 {object} errors.ErrorResponse "Map not found"
// @Router /maps/{name}/export [get]

// ImportMap stores an uploaded map file
// @Summary Import a map
// @Description The path name overrides the name inside the file.
// @Tags maps
// @Accept json,xml
// @Produce json
// @Param name path string true "Map name"
// @Param format query string false "json (default) or xml"
// @Success 201 {object} savedmaps.SavedMap "The stored map"
// @Failure 400 {object} errors.ErrorResponse "Unreadable file or unsupported format"
// @Router /maps/{name}/import [post]
