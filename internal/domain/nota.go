package domain

import (
	"context"
	"time"
)

// Nota representa um lançamento de nota vinculado a uma matrícula (AlunoTurma).
type Nota struct {
	ID           int64     `json:"id"`
	IDAlunoTurma int64     `json:"idAlunoTurma"`
	Valor        float64   `json:"valor"`
	Descricao    string    `json:"descricao"`
	DtLancamento time.Time `json:"dtLancamento"`
}

// NotaDTO é a projeção de nota devolvida na listagem por matrícula.
type NotaDTO struct {
	IDNota       int64     `json:"idNota"`
	Nota         float64   `json:"nota"`
	Descricao    string    `json:"descricao"`
	DtLancamento time.Time `json:"dtLancamento"`
}

// LancarNotaRequest representa o payload de entrada para o lançamento de nota.
type LancarNotaRequest struct {
	IDAlunoTurma int64   `json:"idAlunoTurma"`
	Nota         float64 `json:"nota"`
	Descricao    string  `json:"descricao"`
}

// EditarNotaRequest representa o payload de entrada para a edição de nota.
// O timestamp de lançamento original é preservado.
type EditarNotaRequest struct {
	IDNota    int64   `json:"idNota"`
	Nota      float64 `json:"nota"`
	Descricao string  `json:"descricao"`
}

// NotaRepository define o contrato de persistência para lançamentos de nota.
type NotaRepository interface {
	Save(ctx context.Context, nota Nota) (Nota, error)
	FindByID(ctx context.Context, id int64) (Nota, error)
	FindByMatricula(ctx context.Context, idAlunoTurma int64) ([]NotaDTO, error)
	Update(ctx context.Context, nota Nota) error
	Delete(ctx context.Context, id int64) error
	MatriculaExists(ctx context.Context, idAlunoTurma int64) (bool, error)
}

// NotaService define o contrato de lógica de negócio para lançamentos de nota.
type NotaService interface {
	InserirNota(ctx context.Context, req LancarNotaRequest) error
	EditarNota(ctx context.Context, req EditarNotaRequest) error
	DeletarNota(ctx context.Context, id int64) error
	ListarNotasAluno(ctx context.Context, idAlunoTurma int64) ([]NotaDTO, error)
}
