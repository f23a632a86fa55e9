package api

import "github.com/aubrey-sherman/baby-bootcamp/internal/model"

func credentialsFixture() model.Credentials {
	return model.Credentials{Username: "testuser", Password: "password1"}
}
