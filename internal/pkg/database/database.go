package database

import (
	"github.com/glebarez/sqlite"
	"github.com/quietdesk/backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		// github.com/glebarez/sqlite is pure Go, no cgo needed
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.Persona{}, &model.RoleTemplate{},
		&model.Project{}, &model.ProjectPersona{},
		&model.Memory{}, &model.MemorySuggestion{},
		&model.Message{}, &model.UploadedFile{},
	); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.Request{}, &model.RequestMessage{}, &model.Deliverable{},
	); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.APIKey{}, &model.Integration{}); err != nil {
		return nil, err
	}
	return db, nil
}
