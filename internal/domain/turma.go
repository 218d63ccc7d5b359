package domain

import (
	"context"
	"time"
)

// Turma representa uma turma com um professor responsável e vários alunos matriculados.
type Turma struct {
	ID          int64      `json:"id"`
	Nome        string     `json:"nome"`
	IDProfessor int64      `json:"idProfessor"`
	DtInicio    time.Time  `json:"dtInicio"`
	DtFim       *time.Time `json:"dtFim"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AlunoTurma é o registro de matrícula que vincula um aluno a uma turma.
// O par (IDAluno, IDTurma) é único no banco.
type AlunoTurma struct {
	ID          int64     `json:"id"`
	IDAluno     int64     `json:"idAluno"`
	IDTurma     int64     `json:"idTurma"`
	DtMatricula time.Time `json:"dtMatricula"`
}

// TurmaDTO é a projeção de turma devolvida em listagens e consultas,
// com os campos derivados (nome do professor e quantidade de alunos).
type TurmaDTO struct {
	IDTurma       int64      `json:"idTurma"`
	Nome          string     `json:"nome"`
	DtInicio      time.Time  `json:"dtInicio"`
	DtFim         *time.Time `json:"dtFim"`
	IDProfessor   int64      `json:"idProfessor"`
	NomeProfessor string     `json:"nomeProfessor"`
	QtdAlunos     int        `json:"qtdAlunos"`
}

// CriarTurmaRequest representa o payload de entrada para a criação de turma.
type CriarTurmaRequest struct {
	Nome        string `json:"nome"`
	IDProfessor int64  `json:"idProfessor"`
}

// EditarTurmaRequest representa o payload de entrada para a edição de turma.
type EditarTurmaRequest struct {
	IDTurma     int64      `json:"idTurma"`
	Nome        string     `json:"nome"`
	IDProfessor int64      `json:"idProfessor"`
	DtFim       *time.Time `json:"dtFim,omitempty"`
}

// ListarTurmaFiltro define os parâmetros de busca e paginação da listagem de turmas.
type ListarTurmaFiltro struct {
	NrPagina    int       `json:"nrPagina"`
	QtRegistros int       `json:"qtRegistros"`
	IDUsuario   *int64    `json:"idUsuario,omitempty"`
	Pesquisa    string    `json:"pesquisa,omitempty"`
	Ordenacao   Ordenacao `json:"ordenacao"`
}

// VincularAlunoRequest representa o payload para vincular ou desvincular um
// aluno (identificado pelo RA) de uma turma.
type VincularAlunoRequest struct {
	IDTurma       int64  `json:"idTurma"`
	RAAluno       string `json:"raAluno"`
	FlDesvincular bool   `json:"flDesvincular"`
}

// TurmaRepository define o contrato de persistência para turmas e matrículas.
type TurmaRepository interface {
	Save(ctx context.Context, turma Turma) (Turma, error)
	FindByID(ctx context.Context, id int64) (TurmaDTO, error)
	FindAll(ctx context.Context, filtro ListarTurmaFiltro) ([]TurmaDTO, int, error)
	Update(ctx context.Context, turma Turma) error
	Delete(ctx context.Context, id int64) error
	CountAlunos(ctx context.Context, idTurma int64) (int, error)
	FindRaw(ctx context.Context, id int64) (Turma, error)

	FindAlunoIDByRA(ctx context.Context, ra string) (int64, error)
	FindMatricula(ctx context.Context, idAluno, idTurma int64) (AlunoTurma, error)
	SaveMatricula(ctx context.Context, matricula AlunoTurma) (AlunoTurma, error)
	DeleteMatricula(ctx context.Context, id int64) error
}

// TurmaService define o contrato de lógica de negócio para turmas.
type TurmaService interface {
	CriarTurma(ctx context.Context, req CriarTurmaRequest) (int64, error)
	EditarTurma(ctx context.Context, req EditarTurmaRequest) error
	DeletarTurma(ctx context.Context, id int64) error
	ListarTurmas(ctx context.Context, filtro ListarTurmaFiltro) (PaginacaoResult[TurmaDTO], error)
	ObterTurmaPorID(ctx context.Context, id int64) (TurmaDTO, error)
	VincularAluno(ctx context.Context, req VincularAlunoRequest) error
}
