package contracts

import "github.com/meysamhadeli/buroca/resources/models"

type IResourceStore interface {
	DataDir() string
	Groups() ([]models.Group, error)
	EntityNames() ([]string, error)
	LoadEntityNamespace(entity string) (models.Namespace, error)
	LoadAllEntities() (*models.Entities, error)
	Load(path string) (interface{}, error)
	Clear()
	GetPerformanceStats() map[string]interface{}
}
