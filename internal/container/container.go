package container

import (
	"malaria-scan/config"
	app "malaria-scan/internal/application"
	"malaria-scan/internal/domain/port"
	"malaria-scan/internal/logger"
)

// Models содержит внешние модели и адаптеры конвейера
type Models struct {
	Decoder    port.ScanDecoder
	Segmenter  port.CellSegmenter
	Classifier port.CellClassifier
	Renderer   port.OverlayRenderer
}

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	Describer       *app.TextDescriber
}

func New(
	userRepo port.UserRepository,
	analyses port.AnalysisRepository,
	store port.ScanStore,
	models Models,
	params config.Pipeline,
	log logger.Logger,
) *Container {
	userService := app.NewUserService(userRepo)
	analysisService := app.NewAnalysisService(
		models.Decoder, models.Segmenter, models.Classifier, models.Renderer,
		store, analyses, params, log,
	)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		Describer:       app.NewTextDescriber(),
	}
}
