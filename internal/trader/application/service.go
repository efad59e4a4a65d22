package application

// TraderService 聚合命令与查询两个入口，供接口层使用。
type TraderService struct {
	Commands *TraderCommandService
	Queries  *TraderQueryService
}

func NewTraderService(commands *TraderCommandService, queries *TraderQueryService) *TraderService {
	return &TraderService{Commands: commands, Queries: queries}
}
